package viewer

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Jce-C/megregalo/internal/cascade"
)

//go:embed templates/*.html
var templates embed.FS

const socketPath = "/ws"

type Scene interface {
	Snapshot() []cascade.Item
}

// Server hosts the scene page and its websocket feed.
type Server struct {
	hub      *Hub
	scene    Scene
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewServer(hub *Hub, scene Scene, log zerolog.Logger) *Server {
	return &Server{
		hub:   hub,
		scene: scene,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log: log,
	}
}

func (s *Server) Register(engine *gin.Engine) {
	tmpl := template.Must(template.ParseFS(templates, "templates/*.html"))
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/", s.page)
	engine.GET(socketPath, s.socket)
}

func (s *Server) page(c *gin.Context) {
	c.HTML(http.StatusOK, "scene.html", gin.H{
		"Title":      "I love you",
		"SocketPath": socketPath,
	})
}

func (s *Server) socket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:   s.hub,
		conn:  conn,
		scene: s.scene,
		send:  make(chan []byte, 256),
		log:   s.log,
	}

	if !s.hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
