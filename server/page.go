package server

import (
	"html/template"
	"net/http"

	"github.com/aouyang1/go-forecastboard/dashboard"
	"github.com/gin-gonic/gin"
)

type modeOption struct {
	ID       dashboard.Mode
	Label    string
	Selected bool
}

type pageData struct {
	View   *dashboard.View
	Modes  []modeOption
	Assets []string

	// Charts holds the container element and init script of each chart by id. go-echarts
	// escapes its own templates so the markup is trusted as is.
	Charts map[string]template.HTML
}

func newPageData(view *dashboard.View) *pageData {
	data := &pageData{
		View:   view,
		Charts: make(map[string]template.HTML),
	}
	for _, m := range dashboard.Modes() {
		data.Modes = append(data.Modes, modeOption{
			ID:       m,
			Label:    m.Label(),
			Selected: m == view.Mode,
		})
	}

	seen := make(map[string]struct{})
	for _, c := range view.Charts() {
		// rendering validates the chart, which resolves its asset urls
		snippet := c.Snippet()
		data.Charts[c.ID] = template.HTML(snippet.Element + "\n" + snippet.Script)
		for _, asset := range c.Line().JSAssets.Values {
			if _, exists := seen[asset]; exists {
				continue
			}
			seen[asset] = struct{}{}
			data.Assets = append(data.Assets, asset)
		}
	}
	return data
}

// Page renders the dashboard html for the mode query parameter.
func (s *Server) Page(c *gin.Context) {
	view, status, err := s.render(c)
	if err != nil {
		c.String(status, err.Error())
		return
	}
	c.HTML(http.StatusOK, "index.html", newPageData(view))
}
