package ipfs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vaultledger/internal/contentstore"
	dErrors "vaultledger/pkg/domain-errors"
)

// fakeNode implements the block/put and block/get endpoints of the kubo API.
type fakeNode struct {
	mu     sync.Mutex
	blocks map[string][]byte
	down   bool
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.down {
		http.Error(w, `{"Message":"node offline","Code":0,"Type":"error"}`, http.StatusInternalServerError)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/block/put"):
		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		part, err := mr.NextPart()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(part)
		hf := contentstore.HashFunc(r.URL.Query().Get("mhtype"))
		id, err := contentstore.ComputeID(data, hf)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n.blocks[id.String()] = data
		_ = json.NewEncoder(w).Encode(map[string]any{"Key": id.String(), "Size": len(data)})
	case strings.HasSuffix(r.URL.Path, "/block/get"):
		data, ok := n.blocks[r.URL.Query().Get("arg")]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"Message": "block was not found locally (offline)", "Code": 0, "Type": "error"})
			return
		}
		_, _ = w.Write(data)
	default:
		http.NotFound(w, r)
	}
}

type IPFSSuite struct {
	suite.Suite
	node   *fakeNode
	server *httptest.Server
}

func TestIPFSSuite(t *testing.T) {
	suite.Run(t, new(IPFSSuite))
}

func (s *IPFSSuite) SetupTest() {
	s.node = &fakeNode{blocks: make(map[string][]byte)}
	s.server = httptest.NewServer(s.node)
}

func (s *IPFSSuite) TearDownTest() {
	s.server.Close()
}

func (s *IPFSSuite) TestPutGetThroughClient() {
	client := contentstore.New(New(s.server.URL, contentstore.SHA256, time.Second))

	id, err := client.Put(context.Background(), []byte("encrypted record"))
	s.Require().NoError(err)

	got, err := client.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Equal([]byte("encrypted record"), got)
}

func (s *IPFSSuite) TestTamperedBlockDetected() {
	client := contentstore.New(New(s.server.URL, contentstore.SHA256, time.Second))
	id, err := client.Put(context.Background(), []byte("original"))
	s.Require().NoError(err)

	s.node.mu.Lock()
	s.node.blocks[id.String()] = []byte("swapped")
	s.node.mu.Unlock()

	_, err = client.Get(context.Background(), id)
	s.True(dErrors.HasCode(err, dErrors.CodeIntegrity))
}

func (s *IPFSSuite) TestNodeDownIsUnavailable() {
	s.node.mu.Lock()
	s.node.down = true
	s.node.mu.Unlock()

	backend := New(s.server.URL, contentstore.SHA256, time.Second)
	_, err := backend.Add(context.Background(), []byte("data"))
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
}

func (s *IPFSSuite) TestMissingBlock() {
	backend := New(s.server.URL, contentstore.SHA256, time.Second)
	id, err := contentstore.ComputeID([]byte("absent"), contentstore.SHA256)
	s.Require().NoError(err)

	_, err = backend.Get(context.Background(), id)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *IPFSSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := New(s.server.URL, contentstore.SHA256, time.Second)
	_, err := backend.Get(ctx, contentstore.ContentID("bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq"))
	s.Require().Error(err)
}
