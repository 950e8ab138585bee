package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/dogpark/server/internal/app"
	"github.com/dogpark/server/internal/data"
	"github.com/dogpark/server/internal/model"
)

type mapListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type roadJSON struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type buildingJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type officeJSON struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

type mapJSON struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Roads     []roadJSON      `json:"roads"`
	Buildings []buildingJSON  `json:"buildings"`
	Offices   []officeJSON    `json:"offices"`
	LootTypes []data.LootType `json:"lootTypes,omitempty"`
}

func (s *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondInvalidMethod(w, "GET, HEAD")
		return
	}
	maps := s.app.ListMaps()
	out := make([]mapListItem, 0, len(maps))
	for _, m := range maps {
		out = append(out, mapListItem{ID: m.ID(), Name: m.Name()})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondInvalidMethod(w, "GET, HEAD")
		return
	}
	m, lootTypes, err := s.app.GetMap(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
		return
	}
	respondJSON(w, http.StatusOK, renderMap(m, lootTypes))
}

func renderMap(m *model.Map, lootTypes []data.LootType) mapJSON {
	out := mapJSON{
		ID:        m.ID(),
		Name:      m.Name(),
		Roads:     []roadJSON{},
		Buildings: []buildingJSON{},
		Offices:   []officeJSON{},
		LootTypes: lootTypes,
	}
	for _, road := range m.Roads() {
		rj := roadJSON{X0: road.Start.X, Y0: road.Start.Y}
		if road.IsHorizontal() {
			x1 := road.End.X
			rj.X1 = &x1
		} else {
			y1 := road.End.Y
			rj.Y1 = &y1
		}
		out.Roads = append(out.Roads, rj)
	}
	for _, b := range m.Buildings() {
		out.Buildings = append(out.Buildings, buildingJSON{
			X: b.Bounds.Position.X,
			Y: b.Bounds.Position.Y,
			W: b.Bounds.Size.Width,
			H: b.Bounds.Size.Height,
		})
	}
	for _, office := range m.Offices() {
		out.Offices = append(out.Offices, officeJSON{
			ID:      office.ID,
			X:       office.Position.X,
			Y:       office.Position.Y,
			OffsetX: office.Offset.DX,
			OffsetY: office.Offset.DY,
		})
	}
	return out
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondInvalidMethod(w, "POST")
		return
	}
	var req struct {
		UserName string `json:"userName"`
		MapID    string `json:"mapId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Join game request parse error")
		return
	}

	result, err := s.app.JoinGame(req.UserName, req.MapID)
	switch {
	case errors.Is(err, app.ErrInvalidName):
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid name")
		return
	case errors.Is(err, app.ErrMapNotFound):
		respondError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, codeBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authToken": string(result.Token),
		"playerId":  result.PlayerID,
	})
}

// respondAuthError renders token failures; other errors fall through and the
// caller handles them.
func respondAuthError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, app.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, codeInvalidToken, "Authorization header is missing")
		return true
	case errors.Is(err, app.ErrUnknownToken):
		respondError(w, http.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
		return true
	}
	return false
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondInvalidMethod(w, "GET, HEAD")
		return
	}
	players, err := s.app.ListPlayers(r.Header.Get("Authorization"))
	if err != nil {
		if !respondAuthError(w, err) {
			respondError(w, http.StatusInternalServerError, codeBadRequest, err.Error())
		}
		return
	}
	out := make(map[string]interface{}, len(players))
	for _, p := range players {
		out[strconv.FormatUint(p.ID, 10)] = map[string]string{"name": p.Name}
	}
	respondJSON(w, http.StatusOK, out)
}

type bagItemJSON struct {
	ID   uint64 `json:"id"`
	Type int    `json:"type"`
}

type playerStateJSON struct {
	Pos   [2]float64    `json:"pos"`
	Speed [2]float64    `json:"speed"`
	Dir   string        `json:"dir"`
	Bag   []bagItemJSON `json:"bag"`
	Score int           `json:"score"`
}

type lostObjectJSON struct {
	Type int        `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondInvalidMethod(w, "GET, HEAD")
		return
	}
	state, err := s.app.GetGameState(r.Header.Get("Authorization"))
	if err != nil {
		if !respondAuthError(w, err) {
			respondError(w, http.StatusInternalServerError, codeBadRequest, err.Error())
		}
		return
	}

	players := make(map[string]playerStateJSON, len(state.Dogs))
	for _, dog := range state.Dogs {
		bag := make([]bagItemJSON, 0, len(dog.Bag))
		for _, entry := range dog.Bag {
			bag = append(bag, bagItemJSON{ID: entry.ID, Type: entry.Type})
		}
		players[strconv.FormatUint(dog.ID, 10)] = playerStateJSON{
			Pos:   [2]float64{dog.Pos.X, dog.Pos.Y},
			Speed: [2]float64{dog.Speed.X, dog.Speed.Y},
			Dir:   dog.Dir.String(),
			Bag:   bag,
			Score: dog.Score,
		}
	}
	lost := make(map[string]lostObjectJSON, len(state.Loot))
	for _, loot := range state.Loot {
		lost[strconv.FormatUint(loot.ID, 10)] = lostObjectJSON{
			Type: loot.Type,
			Pos:  [2]float64{loot.Pos.X, loot.Pos.Y},
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players":     players,
		"lostObjects": lost,
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondInvalidMethod(w, "POST")
		return
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid content type")
		return
	}
	var req struct {
		Move string `json:"move"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		return
	}
	err := s.app.MovePlayer(r.Header.Get("Authorization"), req.Move)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, struct{}{})
	case errors.Is(err, app.ErrInvalidMove):
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
	default:
		if !respondAuthError(w, err) {
			respondError(w, http.StatusInternalServerError, codeBadRequest, err.Error())
		}
	}
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondInvalidMethod(w, "POST")
		return
	}
	if s.app.IsAuto() {
		respondError(w, http.StatusBadRequest, codeBadRequest, "Invalid endpoint")
		return
	}
	var req struct {
		TimeDelta *int64 `json:"timeDelta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TimeDelta == nil || *req.TimeDelta < 0 {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse tick request")
		return
	}
	if err := s.app.ManualTick(time.Duration(*req.TimeDelta) * time.Millisecond); err != nil {
		respondError(w, http.StatusInternalServerError, codeBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

type recordJSON struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondInvalidMethod(w, "GET, HEAD")
		return
	}

	start := 0
	maxItems := app.DefaultRecordsPage
	query := r.URL.Query()
	if v := query.Get("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse start")
			return
		}
		start = n
	}
	if v := query.Get("maxItems"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse maxItems")
			return
		}
		maxItems = n
	}

	rows, err := s.app.ListRetired(r.Context(), start, maxItems)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid records request")
		return
	}
	out := make([]recordJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, recordJSON{Name: row.Name, Score: row.Score, PlayTime: row.PlayTime})
	}
	respondJSON(w, http.StatusOK, out)
}
