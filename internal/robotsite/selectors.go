package robotsite

import "fmt"

// Elements of the order page the bot interacts with.
const (
	SelectorConsentOK    = "//button[normalize-space()='OK']"
	SelectorHead         = "#head"
	SelectorLegs         = "input[placeholder='Enter the part number for the legs']"
	SelectorAddress      = "#address"
	SelectorOrder        = "#order"
	SelectorOrderAnother = "#order-another"
	SelectorReceipt      = "#receipt"
	SelectorPreview      = "#robot-preview-image"
)

// SelectorBody is the radio button of a body type, the site puts the value
// into the element id.
func SelectorBody(body string) string {
	return fmt.Sprintf("#id-body-%s", body)
}
