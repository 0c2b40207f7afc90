package robotsite

import (
	"context"

	"robotorder/internal/assert"
	"robotorder/internal/browser"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry"
)

const (
	report_site_open    = "open"
	report_site_consent = "dismiss-consent"
)

// Site is the robot order page loaded in a browser page.
type Site struct {
	page browser.Page
	url  string
	tel  telemetry.API
}

func NewSite(page browser.Page, url string, tel telemetry.API) Site {
	assert.NotNil(page)
	assert.NotEmptyStr("url", url)
	assert.NotNil(tel)

	return Site{
		page: page,
		url:  url,
		tel:  telemetry.NewScopedAPI("robotsite", tel),
	}
}

// Open loads the order page and closes the consent dialog covering it.
func (s Site) Open(ctx context.Context) error {
	err := s.page.Navigate(ctx, s.url)
	if err != nil {
		s.tel.ReportBroken(report_site_open, err, s.url)
		return failure.Wrap(failure.ErrUIInteraction, "open order page", err)
	}
	s.tel.ReportDebug(report_site_open, s.url)
	return s.DismissConsent(ctx)
}

// DismissConsent clicks the OK button of the consent dialog, it is shown when
// the page loads and again after every "order another".
func (s Site) DismissConsent(ctx context.Context) error {
	err := s.page.Click(ctx, SelectorConsentOK)
	if err != nil {
		s.tel.ReportBroken(report_site_consent, err)
		return failure.Wrap(failure.ErrUIInteraction, "dismiss consent dialog", err)
	}
	return nil
}
