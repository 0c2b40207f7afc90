package restyutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput map[string]string

func (m memoryOutput) Write(id, contents string) {
	m[id] = contents
}

func TestMessageId(t *testing.T) {
	require.Equal(
		t,
		"001_GET_robotsparebinindustries.com_orders.csv.txt",
		messageId(1, "GET", "https://robotsparebinindustries.com/orders.csv"),
	)
	require.LessOrEqual(t, len(messageId(2, "GET", "http://example.com/"+strings.Repeat("a", 200))), 64+len("002_GET_.txt"))
}

func TestDumpExchanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.Write([]byte("Order number,Head,Body,Legs,Address\n"))
	}))
	defer server.Close()

	out := memoryOutput{}
	client := resty.New()
	DumpExchanges(client, out)

	_, err := client.R().Get(server.URL + "/orders.csv")
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, out, 1)
	for id, contents := range out {
		require.True(t, strings.HasPrefix(id, "001_GET_"), id)
		require.Contains(t, contents, "---- REQUEST ----")
		require.Contains(t, contents, "GET "+server.URL+"/orders.csv")
		require.Contains(t, contents, "X-Test: yes")
		require.Contains(t, contents, "Order number,Head,Body,Legs,Address")
	}
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "http")
	out, err := NewFilesystemOutput(dir)
	if err != nil {
		t.Fatal(err)
	}
	out.Write("001_GET_x.txt", "contents")

	contents, err := os.ReadFile(filepath.Join(dir, "001_GET_x.txt"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "contents", string(contents))
}

func TestFormatRequestBody(t *testing.T) {
	table := []struct {
		name     string
		getBody  func() (io.ReadCloser, error)
		expected string
	}{
		{
			name:     "no GetBody",
			expected: "",
		},
		{
			name: "GetBody without a body",
			getBody: func() (io.ReadCloser, error) {
				return nil, nil
			},
			expected: "",
		},
		{
			name: "form body",
			getBody: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("head=1")), nil
			},
			expected: "head=1",
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
			if err != nil {
				t.Fatal(err)
			}
			req.GetBody = test.getBody
			require.Equal(t, test.expected, formatRequestBody(req))
		})
	}
}
