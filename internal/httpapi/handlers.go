package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/impostor-party/server/internal/content"
	"github.com/impostor-party/server/internal/store"
)

var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// queryLang normalizes the lang parameter; anything but "en" means "es".
func queryLang(r *http.Request) string {
	if r.URL.Query().Get("lang") == "en" {
		return "en"
	}
	return "es"
}

// WordPacks serves the full pack catalog for one language.
func WordPacks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, content.Packs(queryLang(r)))
}

// RandomWord draws one word from a pack at the requested difficulty.
func RandomWord(w http.ResponseWriter, r *http.Request) {
	lang := queryLang(r)
	packID := r.URL.Query().Get("pack")
	difficulty := content.Difficulty(r.URL.Query().Get("difficulty"))
	switch difficulty {
	case content.DifficultyEasy, content.DifficultyMedium, content.DifficultyHard:
	default:
		difficulty = content.DifficultyMedium
	}

	word, ok := content.RandomWord(lang, packID, difficulty)
	if !ok {
		writeError(w, http.StatusNotFound, "pack_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"word": word})
}

// GetPlayer serves a stored player profile.
func GetPlayer(st *store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, "database_unavailable")
			return
		}
		id := strings.ToLower(chi.URLParam(r, "id"))
		if !uuidRe.MatchString(id) {
			writeError(w, http.StatusBadRequest, "invalid_id")
			return
		}

		profile, err := st.GetPlayer(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			log.Error("get player", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// PatchPlayer updates a profile. Only the profile's owner may patch it,
// asserted via the X-Player-Id header.
func PatchPlayer(st *store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, "database_unavailable")
			return
		}
		id := strings.ToLower(chi.URLParam(r, "id"))
		if !strings.EqualFold(r.Header.Get("X-Player-Id"), id) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if !uuidRe.MatchString(id) {
			writeError(w, http.StatusBadRequest, "invalid_id")
			return
		}

		var patch store.ProfilePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body")
			return
		}
		if patch.DisplayName != nil {
			name := strings.TrimSpace(*patch.DisplayName)
			if name == "" || len([]rune(*patch.DisplayName)) > 30 {
				writeError(w, http.StatusBadRequest, "invalid_display_name")
				return
			}
		}
		if patch.Avatar != nil && !content.ValidAvatar(*patch.Avatar) {
			writeError(w, http.StatusBadRequest, "invalid_avatar")
			return
		}

		profile, err := st.UpdatePlayer(r.Context(), id, patch)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			log.Error("patch player", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}
