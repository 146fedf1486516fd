package wsview

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/netutil"
)

const writeTimeout = 2 * time.Second

// Concurrent connections, viewer page loads included.
const maxConns = 16

// Server serves a viewer page at "/" and the frame stream at "/ws".
type Server struct {
	surface  *Surface
	upgrader websocket.Upgrader
	server   *http.Server
}

func NewServer(addr string, s *Surface) *Server {
	srv := &Server{
		surface: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}

	router := http.NewServeMux()
	router.HandleFunc("/", srv.handleIndex)
	router.HandleFunc("/ws", srv.handleWebsocket)
	srv.server = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return srv
}

func (srv *Server) Handler() http.Handler {
	return srv.server.Handler
}

func (srv *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", srv.server.Addr)
	if err != nil {
		return err
	}
	log.Info("Open http://%s/ in a browser", ln.Addr())
	return srv.server.Serve(netutil.LimitListener(ln, maxConns))
}

func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.server.Shutdown(ctx)
}

func (srv *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (srv *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade websocket connection
	ws, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade: %v", err)
		return
	}
	defer ws.Close()

	frames := srv.surface.Subscribe()
	defer func() {
		missed := srv.surface.Unsubscribe(frames)
		log.Info("viewer %s left, %d frames skipped", r.RemoteAddr, missed)
	}()
	log.Info("viewer %s joined", r.RemoteAddr)

	// The viewer sends nothing; reading notices when it goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case msg, ok := <-frames:
			if !ok {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				log.Warn("write to %s: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>camera preview</title></head>
<body style="background:#222">
<canvas id="view"></canvas>
<script>
const canvas = document.getElementById("view");
const ctx = canvas.getContext("2d");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.binaryType = "arraybuffer";
ws.onmessage = (ev) => {
  const v = new DataView(ev.data);
  const w = v.getUint16(4), h = v.getUint16(6);
  if (canvas.width !== w || canvas.height !== h) { canvas.width = w; canvas.height = h; }
  const img = ctx.createImageData(w, h);
  for (let i = 0; i < w * h; i++) {
    const p = v.getUint16(12 + i * 2, true);
    img.data[i * 4] = (p >> 11) << 3;
    img.data[i * 4 + 1] = ((p >> 5) & 0x3f) << 2;
    img.data[i * 4 + 2] = (p & 0x1f) << 3;
    img.data[i * 4 + 3] = 255;
  }
  ctx.putImageData(img, 0, 0);
};
</script>
</body>
</html>
`
