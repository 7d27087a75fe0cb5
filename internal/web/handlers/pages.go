package handlers

import (
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/skinstric/internal/analysis"
	"github.com/kozaktomas/skinstric/internal/config"
	"github.com/kozaktomas/skinstric/internal/constants"
	"github.com/kozaktomas/skinstric/internal/database"
	"github.com/kozaktomas/skinstric/internal/demographics"
	"github.com/kozaktomas/skinstric/internal/metrics"
	"github.com/kozaktomas/skinstric/internal/validate"
	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"go.uber.org/zap"
)

// PagesHandler renders the onboarding flow.
type PagesHandler struct {
	config   *config.Config
	store    database.KV
	analyzer Analyzer
	pages    *renderer
	logger   *zap.Logger
}

// pageData is passed to every page template.
type pageData struct {
	Step       config.Step
	BackPath   string
	NextPath   string
	SelfiePath string
	ImagePath  string
	Error      string

	Name     string
	Location string
	Preview  template.URL

	View  demographics.View
	Query string

	FallbackWidth  int
	FallbackHeight int
}

// NewPagesHandler creates the page handler. analyzer may be nil, in which
// case submissions fail with a visible error.
func NewPagesHandler(cfg *config.Config, store database.KV, analyzer Analyzer, logger *zap.Logger) (*PagesHandler, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &PagesHandler{
		config:   cfg,
		store:    store,
		analyzer: analyzer,
		pages:    pages,
		logger:   logger,
	}, nil
}

// visitorState returns the storage of the visitor making the request.
// On failure it writes a 500 response and returns nil.
func (h *PagesHandler) visitorState(w http.ResponseWriter, r *http.Request) *database.State {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		h.logger.Error("request without visitor session", zap.String("path", r.URL.Path))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	return database.NewState(h.store, session.ID, h.logger)
}

func (h *PagesHandler) newPageData(stepID string) pageData {
	flow := &h.config.Flow
	step, _ := flow.Step(stepID)
	data := pageData{
		Step:     step,
		BackPath: flow.BackPath(stepID),
		NextPath: flow.NextPath(stepID),
	}
	if s, ok := flow.Step("selfie"); ok {
		data.SelfiePath = s.Path
	}
	if s, ok := flow.Step("image"); ok {
		data.ImagePath = s.Path
	}
	return data
}

func (h *PagesHandler) render(w http.ResponseWriter, status int, stepID string, data pageData) {
	if err := h.pages.render(w, status, stepID, data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", stepID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if status == http.StatusOK {
		metrics.PageViews.WithLabelValues(stepID).Inc()
	}
}

func (h *PagesHandler) redirectNext(w http.ResponseWriter, r *http.Request, stepID string) {
	http.Redirect(w, r, h.config.Flow.NextPath(stepID), http.StatusSeeOther)
}

// Home renders the landing page.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}
	data := h.newPageData("home")
	if user, ok := state.LoadUser(r.Context()); ok {
		data.Name = user.Name
	}
	h.render(w, http.StatusOK, "home", data)
}

// Introduce renders the name form, pre-filled with the saved name.
func (h *PagesHandler) Introduce(w http.ResponseWriter, r *http.Request) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}
	data := h.newPageData("introduce")
	if user, ok := state.LoadUser(r.Context()); ok {
		data.Name = user.Name
	}
	h.render(w, http.StatusOK, "introduce", data)
}

// SubmitIntroduce validates and saves the name, keeping any saved location.
func (h *PagesHandler) SubmitIntroduce(w http.ResponseWriter, r *http.Request) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}
	name := r.FormValue("name")
	if verr := validate.Name(name); verr != nil {
		metrics.ValidationFailures.WithLabelValues(verr.Field).Inc()
		data := h.newPageData("introduce")
		data.Name = name
		data.Error = verr.Message
		h.render(w, http.StatusUnprocessableEntity, "introduce", data)
		return
	}

	prev, _ := state.LoadUser(r.Context())
	profile := database.UserProfile{Name: validate.Normalize(name), Location: prev.Location}
	if err := state.SaveUser(r.Context(), profile); err != nil {
		h.logger.Error("failed to save profile", zap.Error(err))
		data := h.newPageData("introduce")
		data.Name = name
		data.Error = "Could not save your name. Please try again."
		h.render(w, http.StatusInternalServerError, "introduce", data)
		return
	}
	h.redirectNext(w, r, "introduce")
}

// City renders the location form, pre-filled with the saved location.
func (h *PagesHandler) City(w http.ResponseWriter, r *http.Request) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}
	data := h.newPageData("city")
	if user, ok := state.LoadUser(r.Context()); ok {
		data.Name = user.Name
		data.Location = user.Location
	}
	h.render(w, http.StatusOK, "city", data)
}

// SubmitCity validates and saves the location, keeping the saved name.
func (h *PagesHandler) SubmitCity(w http.ResponseWriter, r *http.Request) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}
	location := r.FormValue("location")
	prev, _ := state.LoadUser(r.Context())

	if verr := validate.Location(location); verr != nil {
		metrics.ValidationFailures.WithLabelValues(verr.Field).Inc()
		data := h.newPageData("city")
		data.Name = prev.Name
		data.Location = location
		data.Error = verr.Message
		h.render(w, http.StatusUnprocessableEntity, "city", data)
		return
	}

	profile := database.UserProfile{Name: prev.Name, Location: validate.Normalize(location)}
	if err := state.SaveUser(r.Context(), profile); err != nil {
		h.logger.Error("failed to save profile", zap.Error(err))
		data := h.newPageData("city")
		data.Name = prev.Name
		data.Location = location
		data.Error = "Could not save your location. Please try again."
		h.render(w, http.StatusInternalServerError, "city", data)
		return
	}
	h.redirectNext(w, r, "city")
}

// Permissions renders the camera/gallery choice with a preview of the last capture.
func (h *PagesHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}
	data := h.newPageData("permissions")
	if img, ok := state.LoadImage(r.Context()); ok {
		data.Preview = previewURL(img.DataURL)
	}
	h.render(w, http.StatusOK, "permissions", data)
}

// Image renders the upload page.
func (h *PagesHandler) Image(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "image", h.newPageData("image"))
}

// SubmitImage analyzes an uploaded file. On failure the page is rendered
// again with the error and the previously saved state is left as it was.
func (h *PagesHandler) SubmitImage(w http.ResponseWriter, r *http.Request) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize+1<<20)
	dataURL, err := h.readUpload(r)
	if err == nil {
		_, err = analyzeAndSave(r.Context(), h.analyzer, state, dataURL)
	}
	if err != nil {
		h.logger.Warn("image analysis failed", zap.Error(err))
		data := h.newPageData("image")
		data.Error = analysisErrorMessage(err)
		h.render(w, analysisErrorStatus(err), "image", data)
		return
	}
	h.redirectNext(w, r, "image")
}

func (h *PagesHandler) readUpload(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metricsOutcomeInvalid()
			return "", errImageTooLarge
		}
		return "", analysis.ErrEmptyImage
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return "", analysis.ErrEmptyImage
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	dataURL, err := analysis.PrepareUpload(data, h.config.Analysis.MaxImageSize)
	if err != nil {
		metricsOutcomeInvalid()
		return "", err
	}
	return dataURL, nil
}

// Selfie renders the camera page.
func (h *PagesHandler) Selfie(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "selfie", h.newSelfieData())
}

func (h *PagesHandler) newSelfieData() pageData {
	data := h.newPageData("selfie")
	data.FallbackWidth = constants.FallbackSnapshotWidth
	data.FallbackHeight = constants.FallbackSnapshotHeight
	return data
}

// SubmitSelfie analyzes the snapshot data URL posted by the camera page.
func (h *PagesHandler) SubmitSelfie(w http.ResponseWriter, r *http.Request) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxDataURLSize)
	dataURL, err := h.readSnapshot(r)
	if err != nil {
		metricsOutcomeInvalid()
	} else {
		_, err = analyzeAndSave(r.Context(), h.analyzer, state, dataURL)
	}
	if err != nil {
		h.logger.Warn("selfie analysis failed", zap.Error(err))
		data := h.newSelfieData()
		data.Error = analysisErrorMessage(err)
		h.render(w, analysisErrorStatus(err), "selfie", data)
		return
	}
	h.redirectNext(w, r, "selfie")
}

func (h *PagesHandler) readSnapshot(r *http.Request) (string, error) {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", errImageTooLarge
		}
		return "", analysis.ErrEmptyImage
	}
	return normalizeDataURL(r.PostFormValue("image"), h.config.Analysis.MaxImageSize)
}

// Demographics renders the confidence tables. Query parameters race, age and
// gender override the selected rows for this view only.
func (h *PagesHandler) Demographics(w http.ResponseWriter, r *http.Request) {
	h.renderResult(w, r, "demographics")
}

// Summary renders the selected labels and the confidence meter.
func (h *PagesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	h.renderResult(w, r, "summary")
}

func (h *PagesHandler) renderResult(w http.ResponseWriter, r *http.Request, stepID string) {
	state := h.visitorState(w, r)
	if state == nil {
		return
	}
	data := h.newPageData(stepID)
	if user, ok := state.LoadUser(r.Context()); ok {
		data.Name = user.Name
		data.Location = user.Location
	}
	data.View = demographics.NewView(state.LoadResult(r.Context()), demographics.ParseSelection(r.URL.Query()))
	if !data.View.NoData {
		data.Query = demographics.Selection{
			Race:   data.View.Race,
			Age:    data.View.Age,
			Gender: data.View.Gender,
		}.Encode()
	}
	h.render(w, http.StatusOK, stepID, data)
}

// previewURL marks a stored image data URL as safe for an img src.
// Anything that is not an image data URL is dropped.
func previewURL(dataURL string) template.URL {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return ""
	}
	return template.URL(dataURL) //nolint:gosec // only image data URLs produced by this server
}
