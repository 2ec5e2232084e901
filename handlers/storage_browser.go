package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/facette/natsort"
	"github.com/go-chi/chi/v5"

	"github.com/atelier-dev/storefrontbackend/media"
)

// StorageEntry is one stored file in a tier directory.
type StorageEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// StorageBrowserHandler lists a tier directory's contents for the admin
// frontend, which operators lean on while migrating legacy content. Local
// driver only; bucket contents are inspected with the provider's own
// tooling.
type StorageBrowserHandler struct {
	BasePath string
	Store    media.Store
}

func (h *StorageBrowserHandler) ListTier(w http.ResponseWriter, r *http.Request) {
	tier := media.Tier(chi.URLParam(r, "tier"))

	valid := false
	for _, t := range media.AllTiers {
		if t == tier {
			valid = true
			break
		}
	}
	if !valid {
		writeAPIError(w, http.StatusNotFound, "unknown_tier", "unknown storage tier '"+string(tier)+"'")
		return
	}

	dirPath := filepath.Join(h.BasePath, string(tier))
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			// tier directories are created lazily; an empty tier is not an error
			writeJSON(w, http.StatusOK, []StorageEntry{})
			return
		}
		log.Printf("Error reading storage directory %s: %v", dirPath, err)
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "failed to read storage directory")
		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	natsort.Sort(names)

	out := make([]StorageEntry, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dirPath, name))
		if err != nil {
			continue
		}
		out = append(out, StorageEntry{
			Name: name,
			Size: info.Size(),
			URL:  h.Store.URL(string(tier) + "/" + name),
		})
	}

	writeJSON(w, http.StatusOK, out)
}
