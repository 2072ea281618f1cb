package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/adtp/pkg/network"
	"github.com/ZentaChain/adtp/pkg/protocol"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	steps := []struct {
		method  protocol.Method
		uri     string
		content string
		status  protocol.Status
		body    string
	}{
		{protocol.MethodCheck, "/items", "", protocol.StatusNotFound, ""},
		{protocol.MethodCreate, "/items", "Hello", protocol.StatusOK, "Hello"},
		{protocol.MethodCreate, "/items", "again", protocol.StatusDenied, "already exists"},
		{protocol.MethodAppend, "/items", " World", protocol.StatusOK, "Hello World"},
		{protocol.MethodRead, "/items", "", protocol.StatusOK, "Hello World"},
		{protocol.MethodUpdate, "/items", "replaced", protocol.StatusOK, ""},
		{protocol.MethodRead, "/items", "", protocol.StatusOK, "replaced"},
		{protocol.MethodDestroy, "/items", "", protocol.StatusOK, ""},
		{protocol.MethodRead, "/items", "", protocol.StatusNotFound, ""},
		{protocol.MethodUpdate, "/missing", "x", protocol.StatusNotFound, ""},
		{protocol.MethodAuth, "/login", "", protocol.StatusUnauthorized, "authentication is not supported"},
	}

	for _, st := range steps {
		resp := s.ServeADTP(protocol.NewRequest(st.method, st.uri).SetContent(st.content))
		assert.Equal(t, st.status, resp.Status, "%s %s", st.method, st.uri)
		assert.Equal(t, st.body, resp.Content, "%s %s", st.method, st.uri)
	}
}

func TestMemoryStoreRejectsUnknownVersion(t *testing.T) {
	req := protocol.NewRequest(protocol.MethodRead, "/").SetVersion("ADTP/9.0")
	resp := NewMemoryStore().ServeADTP(req)
	assert.Equal(t, protocol.StatusBadRequest, resp.Status)
}

func TestRunDemo(t *testing.T) {
	for _, mode := range []network.Mode{network.ModeSecure, network.ModeInsecure} {
		t.Run(mode.String(), func(t *testing.T) {
			resp, err := runDemo(context.Background(), mode, []network.Option{network.WithKeyBits(1024)})
			require.NoError(t, err)
			assert.Equal(t, protocol.StatusOK, resp.Status)
			assert.Equal(t, "Hello World", resp.Content)
		})
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "send", "demo"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}
