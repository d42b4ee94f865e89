// internal/parser/parser.go
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/price-hounds/farmaprice/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// ErrNotResultsPage signals that the listing container is entirely absent:
// the content is an error page, a captcha interstitial, or some other page
// that is structurally not a search-result page. Distinct from a results
// page with zero offers.
var ErrNotResultsPage = errors.New("content is not a results page")

// selectors for the aggregator's listing markup. The offer-row structure is
// an uncontrolled external contract; keeping every selector here means a
// markup change touches only this file.
const (
	selContainer     = ".listing_container, #listing, ul.listing"
	selRow           = ".listing_item"
	selMerchant      = ".merchant_name"
	selMerchantLogo  = ".merchant_logo"
	selPrice         = ".item_basic_price"
	selTitle         = ".item_title"
	selLink          = "a[href]"
	selDelivery      = ".item_delivery_price"
	selFreeThreshold = ".free_shipping_threshold .block_price"
)

// Parse extracts raw offer records from one page's content. It is a pure
// function of the content: no network, no shared state.
//
// Individual rows that cannot be located (missing seller or price markup)
// are skipped, not fatal; the whole parse fails only when the listing
// skeleton itself is missing.
func Parse(content []byte) ([]models.RawOfferRecord, error) {
	node, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotResultsPage, err)
	}
	doc := goquery.NewDocumentFromNode(node)

	container := doc.Find(selContainer)
	if container.Length() == 0 {
		return nil, ErrNotResultsPage
	}

	var records []models.RawOfferRecord
	skipped := 0

	container.Find(selRow).Each(func(i int, row *goquery.Selection) {
		rec, ok := parseRow(row)
		if !ok {
			skipped++
			return
		}
		records = append(records, rec)
	})

	if skipped > 0 {
		log.Debug().
			Int("skipped", skipped).
			Int("parsed", len(records)).
			Msg("Skipped unparseable listing rows")
	}

	return records, nil
}

// parseRow lifts the free-text fields out of one listing row. It only
// checks that seller and price text exist at all; whether they parse is the
// normalizer's problem.
func parseRow(row *goquery.Selection) (models.RawOfferRecord, bool) {
	seller := strings.TrimSpace(row.Find(selMerchant).First().Text())
	if seller == "" {
		// Some rows carry the merchant only as a logo image
		seller = strings.TrimSpace(row.Find(selMerchantLogo).First().AttrOr("alt", ""))
	}

	priceText := strings.TrimSpace(row.Find(selPrice).First().Text())

	if seller == "" || priceText == "" {
		return models.RawOfferRecord{}, false
	}

	rec := models.RawOfferRecord{
		Seller:           seller,
		PriceText:        priceText,
		PackText:         strings.TrimSpace(row.Find(selTitle).First().Text()),
		ShippingText:     strings.TrimSpace(row.Find(selDelivery).First().Text()),
		FreeShippingText: strings.TrimSpace(row.Find(selFreeThreshold).First().Text()),
	}

	if link := row.Find(selLink).First(); link.Length() > 0 {
		rec.URL = link.AttrOr("href", "")
	}

	return rec, true
}
