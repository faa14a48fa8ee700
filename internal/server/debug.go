package server

import (
	"encoding/json"
	"net/http"

	"github.com/Drew-source/isometric-rpg/internal/game"
)

// DebugHandler предоставляет доступ к внутреннему состоянию симуляции.
// Эндпоинты читают мир без синхронизации с игровым циклом - для
// отладки этого достаточно.
type DebugHandler struct {
	Service *game.Service
}

func NewDebugHandler(s *game.Service) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/entities", h.handleDumpEntities)
	mux.HandleFunc("/debug/grid", h.handleGrid)
	mux.HandleFunc("/debug/tiles", h.handleTiles)
}

// /debug/entities - полный дамп сущностей, включая скрытое состояние ИИ
func (h *DebugHandler) handleDumpEntities(w http.ResponseWriter, r *http.Request) {
	entities := h.Service.World().Entities()

	dump := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		dump = append(dump, map[string]any(e.Serialize()))
	}
	writeJSON(w, dump)
}

// /debug/grid - статистика пространственного индекса
func (h *DebugHandler) handleGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Service.GridStats())
}

// /debug/tiles - размеры карты и распределение клеток по типам
func (h *DebugHandler) handleTiles(w http.ResponseWriter, r *http.Request) {
	tiles := h.Service.Tiles()

	counts := make(map[string]int)
	for kind, n := range tiles.Counts() {
		counts[kind.String()] = n
	}

	writeJSON(w, map[string]any{
		"width":  tiles.Width,
		"height": tiles.Height,
		"counts": counts,
	})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	// nil сериализуем как пустой массив, а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
