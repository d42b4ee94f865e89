package parser

import (
	"errors"
	"testing"
)

const resultsPage = `<!DOCTYPE html>
<html>
<body>
<div class="listing_container">
	<li class="listing_item">
		<a href="https://shop1.example/offer/1"><span class="item_title">Tachipirina 500 mg 20 compresse</span></a>
		<span class="merchant_name">Farmacia Loreto</span>
		<div class="item_basic_price"> 4,90 &euro; </div>
		<div class="item_delivery_price"> + Sped. 3,99 &euro; </div>
		<div class="free_shipping_threshold">Gratis oltre <span class="block_price">49,90 &euro;</span></div>
	</li>
	<li class="listing_item">
		<a href="https://shop2.example/offer/9"><span class="item_title">Tachipirina 500 mg 30 compresse</span></a>
		<img class="merchant_logo" alt="eFarma" src="/logos/efarma.png">
		<div class="item_basic_price">6,20 &euro;</div>
		<div class="item_delivery_price">Sped. gratuita</div>
	</li>
	<li class="listing_item">
		<!-- row with no merchant and no price: must be skipped -->
		<span class="item_title">Broken listing</span>
	</li>
</div>
</body>
</html>`

const emptyResultsPage = `<html><body>
<div class="listing_container"></div>
</body></html>`

const captchaPage = `<html><body>
<h1>Attenzione</h1>
<p>Verifica di non essere un robot.</p>
<form id="captcha"></form>
</body></html>`

func TestParse_ExtractsRows(t *testing.T) {
	records, err := Parse([]byte(resultsPage))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Seller != "Farmacia Loreto" {
		t.Errorf("unexpected seller: %q", first.Seller)
	}
	if first.PriceText != "4,90 €" {
		t.Errorf("unexpected price text: %q", first.PriceText)
	}
	if first.PackText != "Tachipirina 500 mg 20 compresse" {
		t.Errorf("unexpected pack text: %q", first.PackText)
	}
	if first.URL != "https://shop1.example/offer/1" {
		t.Errorf("unexpected URL: %q", first.URL)
	}
	if first.FreeShippingText != "49,90 €" {
		t.Errorf("unexpected free shipping text: %q", first.FreeShippingText)
	}
}

func TestParse_MerchantLogoFallback(t *testing.T) {
	records, err := Parse([]byte(resultsPage))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if records[1].Seller != "eFarma" {
		t.Errorf("expected seller from logo alt, got %q", records[1].Seller)
	}
	if records[1].ShippingText != "Sped. gratuita" {
		t.Errorf("unexpected shipping text: %q", records[1].ShippingText)
	}
}

func TestParse_EmptyContainerIsZeroResults(t *testing.T) {
	records, err := Parse([]byte(emptyResultsPage))
	if err != nil {
		t.Fatalf("an empty listing is not an error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected zero records, got %d", len(records))
	}
}

func TestParse_CaptchaPageFails(t *testing.T) {
	_, err := Parse([]byte(captchaPage))
	if !errors.Is(err, ErrNotResultsPage) {
		t.Fatalf("expected ErrNotResultsPage, got %v", err)
	}
}

func TestParse_MalformedMarkupStillTolerated(t *testing.T) {
	// Unclosed tags: html.Parse repairs what it can; the container is
	// present so the parse must not fail.
	mangled := `<div class="listing_container"><li class="listing_item">
		<span class="merchant_name">Farmacia X</span><div class="item_basic_price">3,00`
	records, err := Parse([]byte(mangled))
	if err != nil {
		t.Fatalf("expected tolerant parse, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Seller != "Farmacia X" {
		t.Errorf("unexpected seller: %q", records[0].Seller)
	}
}
