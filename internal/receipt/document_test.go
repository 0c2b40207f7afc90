package receipt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const siteReceipt = `<h3>Receipt</h3><div>1616057006</div>` +
	`<p class="badge badge-success">RSB-ROBO-ORDER-LKA6KE5Q3F</p>` +
	`<p>Address 123</p>` +
	`<div id="parts" class="alert alert-light" role="alert">` +
	`<div>Head: 1</div><div>Body: 2</div><div>Legs: 3</div></div>` +
	`<p>Thank you for your order!</p>` +
	`<script>window.tracking = true</script>`

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo(siteReceipt)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, Info{
		OrderID:   "RSB-ROBO-ORDER-LKA6KE5Q3F",
		Timestamp: "1616057006",
		Address:   "Address 123",
		Parts:     []string{"Head: 1", "Body: 2", "Legs: 3"},
	}, info)

	_, err = ParseInfo("<p>nothing here</p>")
	require.Error(t, err)
}

func TestDocument(t *testing.T) {
	doc, err := Document("Receipt for order 1", siteReceipt)
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, doc, "<title>Receipt for order 1</title>")
	require.Contains(t, doc, `<p class="badge badge-success">RSB-ROBO-ORDER-LKA6KE5Q3F</p>`)
	require.NotContains(t, doc, "<script>")
	require.NotContains(t, doc, "tracking")
}
