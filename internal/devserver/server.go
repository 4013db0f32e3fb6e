package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"projectchat/internal/models"
	"projectchat/pkg/logger"
)

const defaultHistoryLimit = 50

// Server is the in-memory development chat backend. It implements the
// wire contract the client library speaks: the websocket endpoint plus
// the assignment and history REST endpoints. Not for production use;
// it exists for local development and the integration tests.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	store    *Store
	hub      *Hub
	router   *mux.Router
	upgrader websocket.Upgrader
}

func New(secret []byte, tokenTTL time.Duration, store *Store) *Server {
	s := &Server{
		secret:   secret,
		tokenTTL: tokenTTL,
		store:    store,
		hub:      NewHub(store, defaultHistoryLimit),
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/api/assignments", s.handleAssignments).Methods(http.MethodGet)
	s.router.HandleFunc("/api/rooms/{roomID}/messages", s.handleHistory).Methods(http.MethodGet)

	go s.hub.Run()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Shutdown() {
	s.hub.Shutdown()
}

// MintToken issues a signed dev token carrying the user's identity
// claims, in the same shape the portal's auth service uses.
func (s *Server) MintToken(user models.Sender) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Name,
		"role":     user.Role,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) validateToken(tokenString string) (models.Sender, error) {
	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return models.Sender{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Sender{}, fmt.Errorf("invalid token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return models.Sender{}, fmt.Errorf("invalid user ID in token")
	}
	sender := models.Sender{ID: userID}
	if name, ok := claims["username"].(string); ok {
		sender.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		sender.Role = role
	}
	return sender, nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	sender, err := s.validateToken(tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	c := newClient(s.hub, conn, sender)
	s.hub.register <- c

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	sender, err := s.authorize(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	assignments := s.store.AssignmentsFor(sender.ID)
	if assignments == nil {
		assignments = []models.Assignment{}
	}
	writeJSON(w, assignments)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sender, err := s.authorize(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	roomID := mux.Vars(r)["roomID"]
	if !s.store.CanAccess(sender.ID, roomID) {
		http.Error(w, "not a member of this room", http.StatusForbidden)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages := s.store.RecentMessages(roomID, limit)
	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, messages)
}

func (s *Server) authorize(r *http.Request) (models.Sender, error) {
	header := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return models.Sender{}, fmt.Errorf("missing bearer token")
	}
	return s.validateToken(tokenStr)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Encode error: %v", err)
	}
}
