package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"vsd/internal/datasets"
	"vsd/internal/detect"
	"vsd/internal/models"
	"vsd/internal/providers"
	"vsd/internal/resolve"
	"vsd/internal/snippets"
	"vsd/internal/spectree"
	"vsd/internal/transfer"
)

const maxRequestBodySize = 64 << 20 // 64 MB, dataset payloads can be large

type ApiController struct {
	logger   providers.Logger
	snippets snippets.StoreInterface
	datasets datasets.StoreInterface
	resolver resolve.ResolverInterface
	tracker  *resolve.RenderTracker
	engine   transfer.EngineInterface
	cache    providers.CacheProviderInterface
	metrics  providers.MetricsProviderInterface
}

func NewApiController(
	logger providers.Logger,
	sn snippets.StoreInterface,
	ds datasets.StoreInterface,
	resolver resolve.ResolverInterface,
	tracker *resolve.RenderTracker,
	engine transfer.EngineInterface,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
) *ApiController {
	return &ApiController{
		logger:   logger,
		snippets: sn,
		datasets: ds,
		resolver: resolver,
		tracker:  tracker,
		engine:   engine,
		cache:    cache,
		metrics:  metrics,
	}
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// writeError maps the error taxonomy onto HTTP statuses. The dangling
// reference case is checked before the generic not-found sentinel because
// it unwraps to the same one.
func (ac *ApiController) writeError(w http.ResponseWriter, err error) {
	var dangling *models.DatasetNotFoundError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &dangling):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateName), errors.Is(err, models.ErrDraftPending):
		status = http.StatusConflict
	case errors.Is(err, models.ErrQuotaExceeded):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrFetch):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrMalformed):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		ac.logger.Errorf(providers.TypeApp, "Internal error: %s", err)
	}
	ac.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request, payload *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func queryID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	return id, err == nil && id != 0
}

func listOptions(r *http.Request) (sort string, descending bool, search string) {
	q := r.URL.Query()
	return q.Get("sort"), q.Get("order") == "desc", q.Get("q")
}

// ---- snippets ----

func (ac *ApiController) CreateSnippet(w http.ResponseWriter, r *http.Request) {
	sn, err := ac.snippets.Create()
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusCreated, sn)
}

func (ac *ApiController) GetSnippet(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r)
	if !ok {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	sn, err := ac.snippets.Get(id)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, sn)
}

type snippetUpdateRequest struct {
	ID      int64          `json:"id"`
	Name    *string        `json:"name"`
	Spec    *string        `json:"spec"`
	Comment *string        `json:"comment"`
	Tags    *[]string      `json:"tags"`
	Meta    map[string]any `json:"meta"`
}

func (ac *ApiController) UpdateSnippet(w http.ResponseWriter, r *http.Request) {
	var payload snippetUpdateRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	sn, err := ac.snippets.Update(payload.ID, snippets.Patch{
		Name:    payload.Name,
		Spec:    payload.Spec,
		Comment: payload.Comment,
		Tags:    payload.Tags,
		Meta:    payload.Meta,
	})
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, sn)
}

type idRequest struct {
	ID int64 `json:"id"`
}

func (ac *ApiController) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	var payload idRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := ac.snippets.Delete(payload.ID); err != nil {
		ac.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) DuplicateSnippet(w http.ResponseWriter, r *http.Request) {
	var payload idRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	sn, err := ac.snippets.Duplicate(payload.ID)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusCreated, sn)
}

func (ac *ApiController) ListSnippets(w http.ResponseWriter, r *http.Request) {
	sort, descending, search := listOptions(r)
	ac.writeJSON(w, http.StatusOK, ac.snippets.List(snippets.ListOptions{
		SortKey:    models.SnippetSortKey(sort),
		Descending: descending,
		Search:     search,
	}))
}

type draftRequest struct {
	ID    int64  `json:"id"`
	Spec  string `json:"spec"`
	Flush bool   `json:"flush"`
}

func (ac *ApiController) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var payload draftRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	mode := snippets.FlushDebounced
	if payload.Flush {
		mode = snippets.FlushNow
	}
	if err := ac.snippets.UpdateDraft(payload.ID, payload.Spec, mode); err != nil {
		ac.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (ac *ApiController) PublishSnippet(w http.ResponseWriter, r *http.Request) {
	var payload idRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	sn, err := ac.snippets.Publish(payload.ID)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, sn)
}

func (ac *ApiController) RevertSnippet(w http.ResponseWriter, r *http.Request) {
	var payload idRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	sn, err := ac.snippets.Revert(payload.ID)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, sn)
}

func (ac *ApiController) ExtractDatasetRefs(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(r)
	if !ok {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	refs, err := ac.snippets.ExtractDatasetRefs(id)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, map[string]any{"refs": refs})
}

func (ac *ApiController) GetUsage(w http.ResponseWriter, r *http.Request) {
	ac.writeJSON(w, http.StatusOK, ac.snippets.Usage())
}

// ---- datasets ----

type datasetCreateRequest struct {
	Name    string         `json:"name"`
	Data    any            `json:"data"`
	Format  models.Format  `json:"format"`
	Source  models.Source  `json:"source"`
	Comment string         `json:"comment"`
	Meta    map[string]any `json:"meta"`
}

func (ac *ApiController) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var payload datasetCreateRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	d := &models.Dataset{
		Name:    payload.Name,
		Data:    payload.Data,
		Format:  payload.Format,
		Source:  payload.Source,
		Comment: payload.Comment,
		Meta:    payload.Meta,
	}
	if url, ok := d.Data.(string); ok && d.Source == "" && detect.IsURL(url) {
		d.Source = models.SourceURL
	}
	if err := ac.datasets.Create(r.Context(), d); err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusCreated, d)
}

func (ac *ApiController) GetDataset(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		d, err := ac.datasets.GetByName(r.Context(), name)
		if err != nil {
			ac.writeError(w, err)
			return
		}
		ac.writeJSON(w, http.StatusOK, d)
		return
	}
	id, ok := queryID(r)
	if !ok {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	d, err := ac.datasets.Get(r.Context(), id)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, d)
}

type datasetUpdateRequest struct {
	ID      int64           `json:"id"`
	Name    *string         `json:"name"`
	Data    json.RawMessage `json:"data"`
	Format  *models.Format  `json:"format"`
	Source  *models.Source  `json:"source"`
	Comment *string         `json:"comment"`
	Meta    map[string]any  `json:"meta"`
}

func (ac *ApiController) UpdateDataset(w http.ResponseWriter, r *http.Request) {
	var payload datasetUpdateRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	patch := datasets.Patch{
		Name:    payload.Name,
		Format:  payload.Format,
		Source:  payload.Source,
		Comment: payload.Comment,
		Meta:    payload.Meta,
	}
	if len(payload.Data) > 0 {
		var data any
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		patch.Data = data
		patch.HasData = true
	}
	d, err := ac.datasets.Update(r.Context(), payload.ID, patch)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, d)
}

func (ac *ApiController) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	var payload idRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	if err := ac.datasets.Delete(r.Context(), payload.ID); err != nil {
		ac.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) ListDatasets(w http.ResponseWriter, r *http.Request) {
	sort, descending, search := listOptions(r)
	out, err := ac.datasets.List(r.Context(), datasets.ListOptions{
		SortKey:    sort,
		Descending: descending,
		Search:     search,
	})
	if err != nil {
		ac.writeError(w, err)
		return
	}
	if out == nil {
		out = []*models.Dataset{}
	}
	ac.writeJSON(w, http.StatusOK, out)
}

func (ac *ApiController) RefreshDataset(w http.ResponseWriter, r *http.Request) {
	var payload idRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	d, err := ac.datasets.RefreshMetadata(r.Context(), payload.ID)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, d)
}

type extractRequest struct {
	SnippetID int64  `json:"snippetId"`
	Name      string `json:"name"`
}

type extractResponse struct {
	Dataset *models.Dataset `json:"dataset"`
	Snippet *models.Snippet `json:"snippet"`
}

// ExtractInlineData lifts the first inline values payload out of a snippet
// into a new dataset and rewrites the snippet to reference it by name. The
// rewrite targets whichever view is authoritative: the draft when one is
// pending, the published spec otherwise.
func (ac *ApiController) ExtractInlineData(w http.ResponseWriter, r *http.Request) {
	var payload extractRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	sn, err := ac.snippets.Get(payload.SnippetID)
	if err != nil {
		ac.writeError(w, err)
		return
	}

	tree, err := spectree.Parse(sn.CurrentSpec())
	if err != nil {
		ac.writeError(w, &models.MalformedInputError{Err: err})
		return
	}

	name := payload.Name
	if name == "" {
		name = sn.Name + "_data"
	}
	rewritten, rows, found := resolve.ExtractInline(tree, name)
	if !found {
		ac.writeError(w, &models.MalformedInputError{Err: errors.New("snippet has no inline data values")})
		return
	}

	d := &models.Dataset{
		Name:   name,
		Data:   rows,
		Format: models.FormatJSON,
		Source: models.SourceInline,
	}
	if err := ac.datasets.Create(r.Context(), d); err != nil {
		ac.writeError(w, err)
		return
	}

	gson, err := json.Marshal(rewritten)
	if err != nil {
		ac.writeError(w, err)
		return
	}
	text := string(gson)
	if sn.DraftSpec != nil {
		err = ac.snippets.UpdateDraft(sn.ID, text, snippets.FlushNow)
		if err == nil {
			sn, err = ac.snippets.Get(sn.ID)
		}
	} else {
		sn, err = ac.snippets.Update(sn.ID, snippets.Patch{Spec: &text})
	}
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusCreated, extractResponse{Dataset: d, Snippet: sn})
}

// ---- resolve ----

type resolveRequest struct {
	ID   int64  `json:"id"`
	Spec string `json:"spec"`
}

// ResolveSpec substitutes dataset references in a specification. The body
// names either a stored snippet by id or carries raw spec text; each call
// starts a new render generation whose token is returned with the result.
func (ac *ApiController) ResolveSpec(w http.ResponseWriter, r *http.Request) {
	var payload resolveRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	specText := payload.Spec
	if specText == "" && payload.ID != 0 {
		sn, err := ac.snippets.Get(payload.ID)
		if err != nil {
			ac.writeError(w, err)
			return
		}
		specText = sn.CurrentSpec()
	}
	if specText == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	generation := ac.tracker.Begin()
	start := time.Now()
	resolved, err := ac.resolver.Resolve(r.Context(), specText)
	ac.metrics.ObserveResolveDuration(time.Since(start))
	if err != nil {
		ac.metrics.IncResolveTotal("error")
		ac.writeError(w, err)
		return
	}
	ac.metrics.IncResolveTotal("ok")

	if !ac.tracker.Current(generation) {
		ac.writeJSON(w, http.StatusOK, map[string]any{
			"generation": generation,
			"superseded": true,
		})
		return
	}
	ac.writeJSON(w, http.StatusOK, map[string]any{
		"generation": generation,
		"spec":       resolved,
	})
}

// ---- detect ----

type detectRequest struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
}

// DetectFormat classifies a raw blob. Detection is pure, so small inputs
// are served through the cache.
func (ac *ApiController) DetectFormat(w http.ResponseWriter, r *http.Request) {
	var payload detectRequest
	if !decodeBody(w, r, &payload) {
		return
	}

	cacheable := len(payload.Data) < 8<<10
	cacheKey := "detect:" + payload.Filename + ":" + payload.Data
	if cacheable {
		if data, ok := ac.cache.Get(cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
			return
		}
	}

	detection := detect.Detect(payload.Data, detect.Hint{Filename: payload.Filename})
	gson, err := json.Marshal(detection)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if cacheable {
		ac.cache.Set(cacheKey, gson)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// ---- transfer ----

type importRequest struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
}

func (ac *ApiController) ImportSnippets(w http.ResponseWriter, r *http.Request) {
	var payload importRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	res, err := ac.engine.ImportSnippets(payload.Data, transfer.Hint{Filename: payload.Filename})
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, res)
}

func (ac *ApiController) ImportDatasets(w http.ResponseWriter, r *http.Request) {
	var payload importRequest
	if !decodeBody(w, r, &payload) {
		return
	}
	res, err := ac.engine.ImportDatasets(r.Context(), payload.Data, transfer.Hint{Filename: payload.Filename})
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, res)
}

func (ac *ApiController) Export(w http.ResponseWriter, r *http.Request) {
	envelope, err := ac.engine.Export(r.Context())
	if err != nil {
		ac.writeError(w, err)
		return
	}
	ac.writeJSON(w, http.StatusOK, envelope)
}
