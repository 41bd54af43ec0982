package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kanjirito/mokuro/internal/ocr"
)

// NewOCRStub starts an inference service double that answers healthz and
// returns a fixed single-block result for every page. Pages whose filename
// appears in fail get a 500 instead. The server shuts down via t.Cleanup.
func NewOCRStub(t testing.TB, fail map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/ocr", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if fail[header.Filename] {
			http.Error(w, "model exploded", http.StatusInternalServerError)
			return
		}
		result := ocr.PageResult{
			Version:   "0.1.6",
			ImgWidth:  800,
			ImgHeight: 1200,
			Blocks: []ocr.Block{{
				Box:      [4]int{10, 20, 110, 220},
				Vertical: true,
				FontSize: 22,
				Lines:    []string{"テスト"},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
