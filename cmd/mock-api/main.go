// Command mock-api serves a small in-memory copy of the press-release
// backend for local development.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kevinnadar22/announce/internal/domain"
)

const defaultPageSize = 6

type dataset struct {
	announcements []domain.Announcement
	variants      []domain.TranslatedVariant
	categories    []domain.Category
	ministries    []domain.Ministry
	audiences     []domain.AudienceType
	languages     []domain.Language
}

func seed() *dataset {
	d := &dataset{
		categories: []domain.Category{{ID: 1, Name: "Agriculture & Rural Development"}, {ID: 2, Name: "Economy & Finance"}, {ID: 3, Name: "Health & Family Welfare"}},
		ministries: []domain.Ministry{{ID: 1, Name: "Ministry of Agriculture & Farmers Welfare"}, {ID: 2, Name: "Ministry of Finance"}, {ID: 3, Name: "Ministry of Health and Family Welfare"}},
		audiences:  []domain.AudienceType{{ID: 1, Name: "Farmers"}, {ID: 2, Name: "General Public"}, {ID: 3, Name: "Businesses & Industry"}},
		languages:  []domain.Language{{Code: "en", Label: "English"}, {Code: "hi", Label: "Hindi"}, {Code: "ta", Label: "Tamil"}},
	}

	offices := []string{"PIB Delhi", "PIB Mumbai", "PIB Chennai"}
	base := time.Date(2024, 3, 1, 4, 30, 0, 0, time.UTC)
	for i := 1; i <= 20; i++ {
		m := d.ministries[i%len(d.ministries)]
		c := d.categories[i%len(d.categories)]
		a := d.audiences[i%len(d.audiences)]
		langs := []string{"en"}
		if i%2 == 0 {
			langs = append(langs, "hi")
		}
		if i%5 == 0 {
			langs = append(langs, "ta")
		}
		d.announcements = append(d.announcements, domain.Announcement{
			ID:                 i,
			Title:              fmt.Sprintf("%s announces initiative %d", m.Name, i),
			Description:        fmt.Sprintf("Summary of initiative %d for %s.", i, strings.ToLower(a.Name)),
			OriginalText:       fmt.Sprintf("Full text of press release %d issued by %s.", i, m.Name),
			SourceURL:          fmt.Sprintf("https://pib.gov.in/PressReleasePage.aspx?PRID=%d", 2000000+i),
			PublishedAt:        base.Add(-time.Duration(i) * 18 * time.Hour),
			Office:             offices[i%len(offices)],
			MinistryID:         m.ID,
			MinistryName:       m.Name,
			CategoryIDs:        []int{c.ID},
			CategoryNames:      []string{c.Name},
			AudienceTypeIDs:    []int{a.ID},
			AudienceTypeNames:  []string{a.Name},
			AvailableLanguages: langs,
		})

		for _, lang := range langs {
			for _, kind := range []domain.VariantKind{domain.VariantKeypoints, domain.VariantSimplified, domain.VariantOversimplified} {
				// Leave some sections missing so clients show their fallback.
				if kind == domain.VariantOversimplified && lang != "en" {
					continue
				}
				d.variants = append(d.variants, domain.TranslatedVariant{
					ID:             len(d.variants) + 1,
					AnnouncementID: i,
					Language:       lang,
					Kind:           kind,
					Title:          fmt.Sprintf("%s (%s)", kind, lang),
					Content:        fmt.Sprintf("<ul><li>%s point for release %d</li></ul>", kind, i),
				})
			}
		}
	}
	return d
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writePage answers like the real backend, including 404 "Invalid page." for
// any page past the last one.
func writePage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	q := r.URL.Query()
	size, err := strconv.Atoi(q.Get("page_size"))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	n, err := strconv.Atoi(q.Get("page"))
	if err != nil || n < 1 {
		n = 1
	}

	start := (n - 1) * size
	if n > 1 && start >= len(items) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Invalid page."})
		return
	}
	end := min(start+size, len(items))

	var next, prev any
	if end < len(items) {
		next = fmt.Sprintf("http://%s%s?page=%d", r.Host, r.URL.Path, n+1)
	}
	if n > 1 {
		prev = fmt.Sprintf("http://%s%s?page=%d", r.Host, r.URL.Path, n-1)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(items), "next": next, "previous": prev, "results": items[start:end]})
}

func (d *dataset) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	lang := q.Get("has_translation_language")

	var out []domain.Announcement
	for _, a := range d.announcements {
		if search != "" && !strings.Contains(strings.ToLower(a.Title+" "+a.Description), search) {
			continue
		}
		if id, err := strconv.Atoi(q.Get("ministry")); err == nil && a.MinistryID != id {
			continue
		}
		if id, err := strconv.Atoi(q.Get("category")); err == nil && !slices.Contains(a.CategoryIDs, id) {
			continue
		}
		if id, err := strconv.Atoi(q.Get("audience_type")); err == nil && !slices.Contains(a.AudienceTypeIDs, id) {
			continue
		}
		if office := q.Get("pib_hq"); office != "" && a.Office != office {
			continue
		}
		if lang != "" && !a.HasLanguage(lang) {
			continue
		}
		if day := q.Get("date_published"); day != "" && a.PublishedAt.Format("2006-01-02") != day {
			continue
		}
		out = append(out, a)
	}
	writePage(w, r, out)
}

func (d *dataset) getAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	for _, a := range d.announcements {
		if a.ID != id {
			continue
		}
		if lang := r.URL.Query().Get("language"); lang != "" && lang != "en" && a.HasLanguage(lang) {
			a.Title = "[" + lang + "] " + a.Title
		}
		writeJSON(w, http.StatusOK, a)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (d *dataset) listVariants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var out []domain.TranslatedVariant
	for _, v := range d.variants {
		if id, err := strconv.Atoi(q.Get("press_release")); err == nil && v.AnnouncementID != id {
			continue
		}
		if lang := q.Get("language"); lang != "" && v.Language != lang {
			continue
		}
		if kind := q.Get("text_type"); kind != "" && string(v.Kind) != kind {
			continue
		}
		out = append(out, v)
	}
	// Lookup style endpoints are not paginated upstream.
	writeJSON(w, http.StatusOK, out)
}

func (d *dataset) locations(w http.ResponseWriter, r *http.Request) {
	seen := map[string]bool{}
	var offices []string
	for _, a := range d.announcements {
		if !seen[a.Office] {
			seen[a.Office] = true
			offices = append(offices, a.Office)
		}
	}
	slices.Sort(offices)
	writeJSON(w, http.StatusOK, map[string][]string{"pib_hq": offices})
}

func (d *dataset) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Stats{
		PressReleases: len(d.announcements),
		Ministries:    len(d.ministries),
		Languages:     len(d.languages),
	})
}

func main() {
	d := seed()
	r := mux.NewRouter()
	r.HandleFunc("/press-release/", d.listAnnouncements).Methods(http.MethodGet)
	r.HandleFunc("/press-release/{id:[0-9]+}/", d.getAnnouncement).Methods(http.MethodGet)
	r.HandleFunc("/translated-text/", d.listVariants).Methods(http.MethodGet)
	r.HandleFunc("/category/", func(w http.ResponseWriter, r *http.Request) { writePage(w, r, d.categories) })
	r.HandleFunc("/ministry/", func(w http.ResponseWriter, r *http.Request) { writePage(w, r, d.ministries) })
	r.HandleFunc("/audience-type/", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, d.audiences) })
	r.HandleFunc("/languages/", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, d.languages) })
	r.HandleFunc("/pib-hq/", d.locations)
	r.HandleFunc("/stats/", d.stats)

	addr := ":8081"
	if port := os.Getenv("MOCK_API_PORT"); port != "" {
		addr = ":" + port
	}
	slog.Info("Mock press-release API running", "address", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
