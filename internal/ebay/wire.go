package ebay

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// The Trading API renders the same logical field three different ways
// depending on call version and detail level: bare element chardata, a
// quoted numeric string, or a wrapper element with a nested <Value> child.
// Amount and Timestamp absorb all three at the parsing boundary so the
// rest of the pipeline only ever sees typed values.

// Amount is a lenient money field. A value that cannot be parsed leaves
// the amount zero with Present false; it never fails the record.
type Amount struct {
	Value    float64
	Currency string
	Present  bool
}

func (a *Amount) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "currencyID" {
			a.Currency = attr.Value
		}
	}

	var chardata strings.Builder
	var nested string
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			chardata.Write(t)
		case xml.StartElement:
			if strings.EqualFold(t.Name.Local, "Value") {
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				nested = s
			} else if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			raw := strings.TrimSpace(nested)
			if raw == "" {
				raw = strings.TrimSpace(chardata.String())
			}
			raw = strings.TrimPrefix(raw, "$")
			if raw == "" {
				return nil
			}
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				a.Value = v
				a.Present = true
			}
			return nil
		}
	}
}

// Timestamp is a lenient time field; unparsable values stay zero.
type Timestamp struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw string
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// GetSellerTransactionsRequest mirrors the Trading API request shape.
type GetSellerTransactionsRequest struct {
	XMLName              xml.Name `xml:"GetSellerTransactionsRequest"`
	Xmlns                string   `xml:"xmlns,attr"`
	RequesterCredentials struct {
		EBayAuthToken string `xml:"eBayAuthToken"`
	} `xml:"RequesterCredentials"`
	DetailLevel string `xml:"DetailLevel"`
	ModTimeFrom string `xml:"ModTimeFrom"`
	ModTimeTo   string `xml:"ModTimeTo"`
	Pagination  struct {
		EntriesPerPage int `xml:"EntriesPerPage"`
		PageNumber     int `xml:"PageNumber"`
	} `xml:"Pagination"`
	IncludeFinalValueFee   bool `xml:"IncludeFinalValueFee"`
	IncludeContainingOrder bool `xml:"IncludeContainingOrder"`
}

// RawTransaction is one wire record, parsed leniently. The transformer
// decides what is usable; the client never drops a record.
type RawTransaction struct {
	TransactionID      string    `xml:"TransactionID"`
	TransactionPrice   Amount    `xml:"TransactionPrice"`
	CreatedDate        Timestamp `xml:"CreatedDate"`
	PaidTime           Timestamp `xml:"PaidTime"`
	FinalValueFee      Amount    `xml:"FinalValueFee"`
	ActualShippingCost Amount    `xml:"ActualShippingCost"`
	Item               struct {
		ItemID               string `xml:"ItemID"`
		Title                string `xml:"Title"`
		ConditionDisplayName string `xml:"ConditionDisplayName"`
		ListingDetails       struct {
			StartTime Timestamp `xml:"StartTime"`
			EndTime   Timestamp `xml:"EndTime"`
		} `xml:"ListingDetails"`
		PrimaryCategory struct {
			CategoryID   string `xml:"CategoryID"`
			CategoryName string `xml:"CategoryName"`
		} `xml:"PrimaryCategory"`
	} `xml:"Item"`
	ShippingServiceSelected struct {
		ShippingService     string `xml:"ShippingService"`
		ShippingServiceCost Amount `xml:"ShippingServiceCost"`
	} `xml:"ShippingServiceSelected"`
}

type apiErrorEntry struct {
	ShortMessage string `xml:"ShortMessage"`
	LongMessage  string `xml:"LongMessage"`
	ErrorCode    string `xml:"ErrorCode"`
	SeverityCode string `xml:"SeverityCode"`
}

type getSellerTransactionsResponse struct {
	XMLName          xml.Name        `xml:"GetSellerTransactionsResponse"`
	Ack              string          `xml:"Ack"`
	Errors           []apiErrorEntry `xml:"Errors"`
	TransactionArray struct {
		Transactions []RawTransaction `xml:"Transaction"`
	} `xml:"TransactionArray"`
	PaginationResult struct {
		// Kept as strings: the API has been observed returning empty
		// elements here, which must default rather than fail the page.
		TotalNumberOfPages   string `xml:"TotalNumberOfPages"`
		TotalNumberOfEntries string `xml:"TotalNumberOfEntries"`
	} `xml:"PaginationResult"`
}

// TransactionsPage is one parsed page of seller transactions.
type TransactionsPage struct {
	Transactions []RawTransaction
	TotalPages   int
	TotalEntries int
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}
