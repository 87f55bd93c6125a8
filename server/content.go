package server

import (
	"net/http"
	"strings"

	"docsearch-gateway/content"
	"docsearch-gateway/httpjson"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const jsonSuffix = ".json"

type contentHandler struct {
	articles content.ArticleService
	logger   *zap.Logger
}

type foldersResponse struct {
	Folders []string `json:"folders"`
}

type folderResponse struct {
	Folder   string             `json:"folder"`
	Articles []*content.Article `json:"articles"`
}

func (h *contentHandler) listFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.articles.ListFolders(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, foldersResponse{Folders: folders})
}

func (h *contentHandler) folderArticles(w http.ResponseWriter, r *http.Request) {
	folder, ok := strings.CutSuffix(chi.URLParam(r, "folder"), jsonSuffix)
	if !ok || folder == "" {
		notFound(w, r)
		return
	}
	arts, err := h.articles.FindArticlesByFolder(r.Context(), folder)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Listagem não leva o corpo.
	for _, a := range arts {
		a.Body = ""
	}
	httpjson.Write(w, http.StatusOK, folderResponse{Folder: folder, Articles: arts})
}

func (h *contentHandler) article(w http.ResponseWriter, r *http.Request) {
	slug, ok := strings.CutSuffix(chi.URLParam(r, "*"), jsonSuffix)
	if !ok || slug == "" {
		notFound(w, r)
		return
	}
	a, err := h.articles.FindArticleBySlug(r.Context(), slug)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, a)
}

// fail mapeia ENOTFOUND para 404. O resto vira 500 sem detalhe.
func (h *contentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if content.ErrorCode(err) == content.ENOTFOUND {
		httpjson.Error(w, http.StatusNotFound, "Not found", content.ErrorMessage(err))
		return
	}
	h.logger.Error("content query failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	httpjson.Error(w, http.StatusInternalServerError, "Internal server error", "")
}
