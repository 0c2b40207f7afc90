// Package restyutil records the raw HTTP exchanges of a resty client for
// debugging.
package restyutil

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type Output interface {
	Write(id string, contents string)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func messageId(n uint64, method, url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	name := strings.Trim(unsafeChars.ReplaceAllString(url, "_"), "_")
	if len(name) > 64 {
		name = name[:64]
	}
	return fmt.Sprintf("%03d_%s_%s.txt", n, method, name)
}

// DumpExchanges writes every response the client receives, together with the
// request that caused it, to output. A nil output does nothing.
func DumpExchanges(client *resty.Client, output Output) {
	if output == nil {
		return
	}
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&idcounter, 1)
		output.Write(messageId(n, res.Request.Method, res.Request.URL), formatHttpMessage(res))
		return nil
	})
}
