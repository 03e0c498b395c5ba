package controllers

import (
	"net/http"

	"github.com/angelmondragon/yoypulse/api/responses"
	"github.com/angelmondragon/yoypulse/internal/live"
)

// BoardViewer exposes the latest live dashboard state.
type BoardViewer interface {
	View() live.View
}

func Dashboard(board BoardViewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, board.View())
	}
}
