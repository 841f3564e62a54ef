package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"recipehub/internal/auth"
	apperrors "recipehub/internal/errors"
	"recipehub/internal/service"
	"recipehub/internal/storage"
)

// RecipeHandler handles recipe endpoints.
type RecipeHandler struct {
	recipeService service.RecipeService
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(recipeService service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

// RecipeRequest is the body accepted when creating or updating a recipe,
// either as JSON or as multipart/form-data with an optional "image" file.
type RecipeRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Ingredients *string `json:"ingredients"`
	CookingTime *int    `json:"cooking_time"`
	Calories    *int    `json:"calories"`
}

// List godoc
// @Summary List recipes, optionally filtered by a search term
// @Tags recipes
// @Produce json
// @Param search query string false "Case-insensitive substring of name, description or ingredients"
// @Success 200 {array} RecipeResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /recipes [get]
func (h *RecipeHandler) List(c echo.Context) error {
	actor, _ := auth.PrincipalFrom(c)
	recipes, err := h.recipeService.List(c.Request().Context(), actor, c.QueryParam("search"))
	if err != nil {
		return respondError(c, err)
	}

	out := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, newRecipeResponse(&recipes[i], h.recipeService.ImageURL(&recipes[i])))
	}
	return c.JSON(http.StatusOK, out)
}

// Get godoc
// @Summary Get recipe by id
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} RecipeResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id} [get]
func (h *RecipeHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	recipe, err := h.recipeService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newRecipeResponse(recipe, h.recipeService.ImageURL(recipe)))
}

// Create godoc
// @Summary Create a recipe owned by the caller
// @Tags recipes
// @Accept mpfd
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Name"
// @Param description formData string true "Description"
// @Param ingredients formData string true "Ingredients"
// @Param cooking_time formData int false "Cooking time in minutes"
// @Param calories formData int false "Calories"
// @Param image formData file false "Image"
// @Success 201 {object} RecipeResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipes [post]
func (h *RecipeHandler) Create(c echo.Context) error {
	req, upload, cleanup, err := readRecipeRequest(c)
	if err != nil {
		return respondError(c, err)
	}
	defer cleanup()

	actor, _ := auth.PrincipalFrom(c)
	in := service.CreateRecipeInput{
		Name:        deref(req.Name),
		Description: deref(req.Description),
		Ingredients: deref(req.Ingredients),
		CookingTime: req.CookingTime,
		Calories:    req.Calories,
	}
	recipe, err := h.recipeService.Create(c.Request().Context(), actor, in, upload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, newRecipeResponse(recipe, h.recipeService.ImageURL(recipe)))
}

// Update godoc
// @Summary Partially update a recipe (owner only)
// @Tags recipes
// @Accept mpfd
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 200 {object} RecipeResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id} [patch]
func (h *RecipeHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	req, upload, cleanup, err := readRecipeRequest(c)
	if err != nil {
		return respondError(c, err)
	}
	defer cleanup()

	actor, _ := auth.PrincipalFrom(c)
	in := service.UpdateRecipeInput{
		Name:        req.Name,
		Description: req.Description,
		Ingredients: req.Ingredients,
		CookingTime: req.CookingTime,
		Calories:    req.Calories,
	}
	recipe, err := h.recipeService.Update(c.Request().Context(), actor, id, in, upload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, newRecipeResponse(recipe, h.recipeService.ImageURL(recipe)))
}

// Delete godoc
// @Summary Delete a recipe and its comments (owner only)
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipes/{id} [delete]
func (h *RecipeHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	actor, _ := auth.PrincipalFrom(c)
	if err := h.recipeService.Delete(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// readRecipeRequest decodes a JSON or form body. The returned cleanup closes
// the uploaded file, if any, and is always safe to call.
func readRecipeRequest(c echo.Context) (RecipeRequest, *storage.Upload, func(), error) {
	noop := func() {}
	var req RecipeRequest

	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		if err := c.Bind(&req); err != nil {
			return req, nil, noop, apperrors.NewValidationError("non_field_errors", "invalid JSON body")
		}
		return req, nil, noop, nil
	}

	form, err := c.FormParams()
	if err != nil {
		return req, nil, noop, apperrors.NewValidationError("non_field_errors", "invalid form body")
	}

	verr := &apperrors.ValidationError{Fields: map[string]string{}}
	req.Name = formString(form, "name")
	req.Description = formString(form, "description")
	req.Ingredients = formString(form, "ingredients")
	req.CookingTime = formInt(form, "cooking_time", verr)
	req.Calories = formInt(form, "calories", verr)
	if len(verr.Fields) > 0 {
		return req, nil, noop, verr
	}

	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return req, nil, noop, nil
		}
		return req, nil, noop, apperrors.NewValidationError("image", "invalid file upload")
	}
	upload, file, err := openUpload(fh)
	if err != nil {
		return req, nil, noop, apperrors.NewValidationError("image", "invalid file upload")
	}
	return req, upload, func() { _ = file.Close() }, nil
}

func openUpload(fh *multipart.FileHeader) (*storage.Upload, multipart.File, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
	}, file, nil
}

func formString(form map[string][]string, key string) *string {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func formInt(form map[string][]string, key string, verr *apperrors.ValidationError) *int {
	raw := formString(form, key)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		verr.Fields[key] = "a valid integer is required"
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
