// Package robotsitetest simulates the robot order page on top of a
// browsertest.FakePage.
package robotsitetest

import (
	"fmt"
	"html"

	"robotorder/internal/browser/browsertest"
	"robotorder/internal/robotsite"
)

// Site behaves like the order page: a consent dialog after every load and
// reset, rejected submissions, and a receipt built from the filled in form.
type Site struct {
	*browsertest.FakePage

	// failures[i] is how many submissions of the i-th order are rejected
	// before it is accepted
	failures []int
	orders   int
	pending  int
	body     string
}

var bodies = []string{"1", "2", "3", "4", "5", "6"}

// Accepted counts the orders the site accepted and reset the form for.
func (s *Site) Accepted() int {
	return s.orders
}

func NewSite(failures ...int) *Site {
	s := &Site{
		FakePage: browsertest.NewFakePage(),
		failures: failures,
	}

	s.OnNavigate = func(p *browsertest.FakePage, url string) error {
		s.resetForm()
		return nil
	}
	s.OnClick[robotsite.SelectorConsentOK] = func(p *browsertest.FakePage) error {
		p.Present[robotsite.SelectorConsentOK] = false
		return nil
	}
	s.OnClick[robotsite.SelectorOrder] = func(p *browsertest.FakePage) error {
		if p.Present[robotsite.SelectorConsentOK] {
			return fmt.Errorf("order button is covered by the consent dialog")
		}
		if s.pending > 0 {
			s.pending--
			return nil
		}
		s.confirm()
		return nil
	}
	for _, body := range bodies {
		body := body // per-iteration copy; go directive is 1.21
		s.OnClick[robotsite.SelectorBody(body)] = func(p *browsertest.FakePage) error {
			s.body = body
			return nil
		}
	}
	s.OnClick[robotsite.SelectorOrderAnother] = func(p *browsertest.FakePage) error {
		s.orders++
		s.resetForm()
		return nil
	}

	return s
}

func (s *Site) resetForm() {
	p := s.FakePage
	p.Present[robotsite.SelectorConsentOK] = true
	p.Present[robotsite.SelectorHead] = true
	p.Present[robotsite.SelectorLegs] = true
	p.Present[robotsite.SelectorAddress] = true
	p.Present[robotsite.SelectorOrder] = true
	for _, body := range bodies {
		p.Present[robotsite.SelectorBody(body)] = true
	}
	p.Present[robotsite.SelectorOrderAnother] = false
	p.Present[robotsite.SelectorReceipt] = false
	p.Present[robotsite.SelectorPreview] = false
	clear(p.Values)
	s.body = ""

	s.pending = 0
	if s.orders < len(s.failures) {
		s.pending = s.failures[s.orders]
	}
}

func (s *Site) confirm() {
	p := s.FakePage
	p.Present[robotsite.SelectorOrderAnother] = true
	p.Present[robotsite.SelectorReceipt] = true
	p.Present[robotsite.SelectorPreview] = true
	p.Inner[robotsite.SelectorReceipt] = fmt.Sprintf(
		`<h3>Receipt</h3><div>%d</div>`+
			`<p class="badge badge-success">RSB-ROBO-ORDER-%04d</p>`+
			`<p>%s</p>`+
			`<div id="parts" class="alert alert-light" role="alert">`+
			`<div>Head: %s</div><div>Body: %s</div><div>Legs: %s</div></div>`+
			`<p>Thank you for your order!</p>`+
			`<script>window.tracking = true</script>`,
		1616057006+s.orders,
		s.orders+1,
		html.EscapeString(p.Values[robotsite.SelectorAddress]),
		html.EscapeString(p.Values[robotsite.SelectorHead]),
		html.EscapeString(s.body),
		html.EscapeString(p.Values[robotsite.SelectorLegs]),
	)
}
