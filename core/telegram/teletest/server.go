// Package teletest provides a fake Telegram Bot API server for tests.
package teletest

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tele "gopkg.in/telebot.v4"
)

// Token is the bot token used by bots built with Server.Bot.
const Token = "123:test"

// Call is one Bot API request received by the server.
type Call struct {
	Method string
	Params map[string]string
	// Files maps multipart field names to uploaded file contents.
	Files map[string][]byte
}

// Server records Bot API calls and answers them with canned results.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	calls []Call
	files map[string][]byte
	fail  map[string]int
}

// NewServer starts a fake API server that is closed with the test.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{files: make(map[string][]byte), fail: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Bot returns an offline synchronous telebot instance talking to the server.
func (s *Server) Bot(t *testing.T) *tele.Bot {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{
		Token:       Token,
		URL:         s.URL,
		Offline:     true,
		Synchronous: true,
		Client:      s.Client(),
	})
	if err != nil {
		t.Fatalf("teletest: bot: %v", err)
	}
	return bot
}

// AddFile makes path downloadable through getFile and the file endpoint.
func (s *Server) AddFile(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
}

// FailWith makes method answer with the given HTTP-like error code.
func (s *Server) FailWith(method string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = code
}

// Calls returns the recorded calls, optionally filtered by method.
func (s *Server) Calls(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	filePrefix := "/file/bot" + Token + "/"
	if strings.HasPrefix(r.URL.Path, filePrefix) {
		s.mu.Lock()
		data, ok := s.files[strings.TrimPrefix(r.URL.Path, filePrefix)]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
		return
	}

	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	call := Call{Method: method, Params: map[string]string{}, Files: map[string][]byte{}}
	parseParams(r, &call)

	s.mu.Lock()
	s.calls = append(s.calls, call)
	code := s.fail[method]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if code != 0 {
		_, _ = fmt.Fprintf(w, `{"ok":false,"error_code":%d,"description":"Bad Request: forced failure"}`, code)
		return
	}
	_, _ = w.Write(s.result(call))
}

func (s *Server) result(call Call) []byte {
	switch call.Method {
	case "getFile":
		id := call.Params["file_id"]
		return fmt.Appendf(nil, `{"ok":true,"result":{"file_id":%q,"file_unique_id":"u-%s","file_size":4,"file_path":"photos/%s.jpg"}}`, id, id, id)
	case "sendMessage":
		return fmt.Appendf(nil, `{"ok":true,"result":{"message_id":100,"date":0,"chat":{"id":%s,"type":"private"}}}`, chatID(call))
	case "sendPhoto":
		return fmt.Appendf(nil, `{"ok":true,"result":{"message_id":101,"date":0,"chat":{"id":%s,"type":"private"},`+
			`"photo":[{"file_id":"p","file_unique_id":"u","width":1,"height":1}]}}`, chatID(call))
	case "getMe":
		return []byte(`{"ok":true,"result":{"id":123,"is_bot":true,"first_name":"imgbot","username":"imgbot"}}`)
	}
	return []byte(`{"ok":true,"result":true}`)
}

func chatID(call Call) string {
	if id := call.Params["chat_id"]; id != "" {
		return id
	}
	return "0"
}

func parseParams(r *http.Request, call *Call) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				call.Params[k] = v[0]
			}
		}
		for k, fhs := range r.MultipartForm.File {
			if len(fhs) == 0 {
				continue
			}
			f, err := fhs[0].Open()
			if err != nil {
				continue
			}
			data, _ := io.ReadAll(f)
			f.Close()
			call.Files[k] = data
		}
	default:
		body, _ := io.ReadAll(r.Body)
		var raw map[string]any
		if json.Unmarshal(body, &raw) != nil {
			return
		}
		for k, v := range raw {
			if s, ok := v.(string); ok {
				call.Params[k] = s
				continue
			}
			data, _ := json.Marshal(v)
			call.Params[k] = string(data)
		}
	}
}
