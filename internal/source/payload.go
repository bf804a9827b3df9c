package source

import (
	"strings"

	"github.com/tidwall/gjson"
)

// PayloadKind tags which variant of a Payload is populated.
type PayloadKind int

const (
	PayloadJSON PayloadKind = iota
	PayloadHTML
)

func (k PayloadKind) String() string {
	if k == PayloadHTML {
		return "html"
	}
	return "json"
}

// Payload is a raw upstream response, either a JSON tree or HTML text.
// The variant is decided once, when the response is received.
type Payload struct {
	Kind PayloadKind
	JSON gjson.Result
	HTML string
}

// JSONPayload wraps a parsed JSON document.
func JSONPayload(data []byte) Payload {
	return Payload{Kind: PayloadJSON, JSON: gjson.ParseBytes(data)}
}

// HTMLPayload wraps raw markup.
func HTMLPayload(body string) Payload {
	return Payload{Kind: PayloadHTML, HTML: body}
}

// DecodePayload picks the payload variant from the response content type.
// A body labeled JSON that does not parse is treated as HTML.
func DecodePayload(contentType string, body []byte) Payload {
	if strings.Contains(strings.ToLower(contentType), "json") && gjson.ValidBytes(body) {
		return JSONPayload(body)
	}
	return HTMLPayload(string(body))
}

// SniffPayload picks the variant from the body alone. Used for saved
// responses where no content type is available.
func SniffPayload(body []byte) Payload {
	if gjson.ValidBytes(body) {
		return JSONPayload(body)
	}
	return HTMLPayload(string(body))
}
