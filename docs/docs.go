// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/recipes": {
            "get": {
                "tags": ["recipes"],
                "summary": "List recipes, optionally filtered by a search term",
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.RecipeResponse"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data", "application/json"],
                "tags": ["recipes"],
                "summary": "Create a recipe owned by the caller",
                "parameters": [
                    {"type": "string", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "name": "description", "in": "formData", "required": true},
                    {"type": "string", "name": "ingredients", "in": "formData", "required": true},
                    {"type": "integer", "name": "cooking_time", "in": "formData"},
                    {"type": "integer", "name": "calories", "in": "formData"},
                    {"type": "file", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.RecipeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/recipes/{id}": {
            "get": {
                "tags": ["recipes"],
                "summary": "Get recipe by id",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RecipeResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["recipes"],
                "summary": "Partially update a recipe (owner only)",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RecipeResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["recipes"],
                "summary": "Delete a recipe and its comments (owner only)",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/comments": {
            "get": {
                "tags": ["comments"],
                "summary": "List comments",
                "parameters": [{"type": "integer", "name": "recipe", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.CommentResponse"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["comments"],
                "summary": "Comment on a recipe",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateCommentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.CommentResponse"}}
                }
            }
        },
        "/comments/{id}": {
            "get": {
                "tags": ["comments"],
                "summary": "Get comment by id",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommentResponse"}}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["comments"],
                "summary": "Edit a comment (author only)",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.UpdateCommentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommentResponse"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["comments"],
                "summary": "Delete a comment (author only)",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/search-history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["search-history"],
                "summary": "Most recent searches of the caller, newest first",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.SearchHistoryResponse"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["search-history"],
                "summary": "Record a search for the caller",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.SearchHistoryRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.SearchHistoryResponse"}}}
            }
        },
        "/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.TokenPair"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Obtain a token pair",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.TokenPair"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange a refresh token for a new access token",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RefreshRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AccessResponse"}}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Revoke a refresh token",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RefreshRequest"}}],
                "responses": {"204": {"description": "No Content"}}
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "handler.RecipeResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "ingredients": {"type": "string"},
                "image": {"type": "string"},
                "cooking_time": {"type": "integer"},
                "calories": {"type": "integer"},
                "user": {"type": "integer"}
            }
        },
        "handler.CommentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "recipe": {"type": "integer"},
                "author": {"type": "string"},
                "text": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "handler.SearchHistoryResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "handler.SearchHistoryRequest": {
            "type": "object",
            "properties": {"query": {"type": "string"}}
        },
        "handler.CreateCommentRequest": {
            "type": "object",
            "required": ["recipe", "text"],
            "properties": {"recipe": {"type": "integer"}, "text": {"type": "string"}}
        },
        "handler.UpdateCommentRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string"}}
        },
        "handler.RegisterRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.RefreshRequest": {
            "type": "object",
            "required": ["refresh"],
            "properties": {"refresh": {"type": "string"}}
        },
        "handler.AccessResponse": {
            "type": "object",
            "properties": {"access": {"type": "string"}}
        },
        "service.TokenPair": {
            "type": "object",
            "properties": {"refresh": {"type": "string"}, "access": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Recipe Hub API",
	Description:      "Recipe sharing API with comments, text search and per-user search history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
