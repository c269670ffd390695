package stream

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/render"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vector"
)

func binary(end float64) SourceFactory {
	return func() (render.Source, error) {
		s := sim.New[[2]float64](sim.Config{TStep: 1, TEnd: &end})
		s.AddBody(body.Body[[2]float64]{Label: "a", Mass: 1, Position: vector.New2(-1, 0)})
		s.AddBody(body.Body[[2]float64]{Label: "b", Mass: 1, Position: vector.New2(1, 0)})
		return render.NewFrameSource[[2]float64](sim.NewRun(s), 0), nil
	}
}

func dial(t *testing.T, factory SourceFactory, opts ...Option) *websocket.Conn {
	t.Helper()
	opts = append([]Option{WithFrameInterval(time.Millisecond), WithLogger(log.New(io.Discard))}, opts...)
	srv := httptest.NewServer(NewServer(factory, opts...).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	return conn
}

// envelope decodes any server message.
type envelope struct {
	Type   string        `json:"type"`
	Seq    int           `json:"seq"`
	T      float64       `json:"t"`
	Bodies []BodyMessage `json:"bodies"`
	Frames int           `json:"frames"`
	Error  string        `json:"error"`
}

func read(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStreamsWholeRun(t *testing.T) {
	conn := dial(t, binary(2))
	assert.Equal(t, MessageTypeInfo, read(t, conn).Type)

	var times []float64
	for {
		msg := read(t, conn)
		if msg.Type == MessageTypeEnd {
			assert.Equal(t, 3, msg.Frames)
			assert.Empty(t, msg.Error)
			break
		}
		require.Equal(t, MessageTypeFrame, msg.Type)
		assert.Equal(t, len(times), msg.Seq)
		require.Len(t, msg.Bodies, 2)
		assert.Equal(t, "a", msg.Bodies[0].Label)
		times = append(times, msg.T)
	}
	assert.Equal(t, []float64{0, 1, 2}, times)

	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.True(t, errors.As(err, &closeErr))
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
}

func TestStepsPerFrame(t *testing.T) {
	conn := dial(t, binary(5), WithStepsPerFrame(2))
	read(t, conn)

	var times []float64
	for msg := read(t, conn); msg.Type == MessageTypeFrame; msg = read(t, conn) {
		times = append(times, msg.T)
	}
	assert.Equal(t, []float64{1, 3, 5}, times)
}

func TestFactoryErrorEndsStream(t *testing.T) {
	conn := dial(t, func() (render.Source, error) { return nil, errors.New("no bodies") })
	msg := read(t, conn)
	assert.Equal(t, MessageTypeEnd, msg.Type)
	assert.Equal(t, "no bodies", msg.Error)
}

func TestRunFailureIsReported(t *testing.T) {
	conn := dial(t, func() (render.Source, error) {
		s := sim.New[[2]float64](sim.Config{TStep: 1})
		return render.NewFrameSource[[2]float64](sim.NewRun(s), 0), nil
	})
	read(t, conn)
	msg := read(t, conn)
	assert.Equal(t, MessageTypeEnd, msg.Type)
	assert.Zero(t, msg.Frames)
	assert.Contains(t, msg.Error, "no bodies")
}

func TestResetCommand(t *testing.T) {
	conn := dial(t, binary(1e6))
	read(t, conn)
	first := read(t, conn)
	require.Equal(t, 0.0, first.T)

	require.NoError(t, conn.WriteJSON(CommandMessage{Type: CommandReset}))

	for i := 0; i < 1000; i++ {
		msg := read(t, conn)
		if msg.Seq > 0 && msg.T == 0 {
			return
		}
	}
	t.Fatal("run was not restarted")
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewServer(binary(1), WithLogger(log.New(io.Discard))).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
