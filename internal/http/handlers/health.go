package handlers

import (
	"net/http"
)

type visionHealth struct {
	Provider  string `json:"provider,omitempty"`
	Available bool   `json:"available"`
}

type healthReport struct {
	Status string       `json:"status"`
	Vision visionHealth `json:"vision"`
}

// Health always answers 200 while the process serves requests. Without a
// vision backend the api still works; profiles then come out colour-only,
// so the report says which mode analysis runs in.
func (a *App) Health(w http.ResponseWriter, _ *http.Request) {
	report := healthReport{
		Status: "ok",
		Vision: visionHealth{Provider: a.VisionProvider},
	}
	if a.Vision != nil {
		report.Vision.Available = a.Vision.Available()
	}
	a.json(w, http.StatusOK, report)
}
