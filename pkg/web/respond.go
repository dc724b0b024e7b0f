package web

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
)

// ErrUnsupportedMediaType is returned by Decode for bodies that are neither JSON nor XML.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ErrTrailingData is returned by Decode when the body holds more than one document.
var ErrTrailingData = errors.New("unexpected data after the request document")

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	XMLName xml.Name `json:"-" xml:"error"`
	Message string   `json:"error" xml:"message"`
}

// ValidationErrorResponse lists field rule failures keyed by field name.
type ValidationErrorResponse struct {
	XMLName xml.Name    `json:"-" xml:"error"`
	Errors  FieldErrors `json:"validation_errors" xml:"validation_errors"`
}

// FieldErrors maps a field name to the rule it failed.
type FieldErrors map[string]string

// MarshalXML writes one <field name="..."> element per entry, sorted by name.
func (fe FieldErrors) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field := xml.StartElement{
			Name: xml.Name{Local: "field"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: name}},
		}
		if err := e.EncodeElement(fe[name], field); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Respond writes payload with the status, encoded as XML when the request prefers it and JSON otherwise.
// A nil payload writes only the status.
func Respond(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	contentType := ContentTypeJSON
	var (
		response []byte
		err      error
	)
	if PrefersXML(r) {
		contentType = ContentTypeXML
		response, err = xml.Marshal(payload)
		if err == nil {
			response = append([]byte(xml.Header), response...)
		}
	} else {
		response, err = json.Marshal(payload)
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Error encoding response", "content_type", contentType, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError writes an ErrorResponse with the message.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message string) {
	Respond(w, r, logger, status, ErrorResponse{Message: message})
}

// Decode reads the request body into v as JSON, or as XML when Content-Type says so.
// A missing Content-Type is treated as JSON. Anything but whitespace after the document is an error.
func Decode(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	mediaType := ContentTypeJSON
	if ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, ct)
		}
		mediaType = parsed
	}

	body := io.LimitReader(r.Body, maxBodyBytes)
	switch mediaType {
	case ContentTypeJSON:
		return decodeJSON(body, v)
	case ContentTypeXML, "text/xml":
		return decodeXML(body, v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
	}
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}

func decodeXML(body io.Reader, v any) error {
	dec := xml.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return ErrTrailingData
		}
		switch t := tok.(type) {
		case xml.Comment:
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return ErrTrailingData
			}
		default:
			return ErrTrailingData
		}
	}
}

const maxBodyBytes = 1 << 20

// PrefersXML reports whether the Accept header ranks an XML media type above JSON.
// Ties and absent headers resolve to JSON.
func PrefersXML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return false
	}
	jsonQ, xmlQ := -1.0, -1.0
	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				q = parsed
			}
		}
		switch mediaType {
		case ContentTypeJSON, "*/*", "application/*":
			jsonQ = max(jsonQ, q)
		case ContentTypeXML, "text/xml":
			xmlQ = max(xmlQ, q)
		}
	}
	return xmlQ > 0 && xmlQ > jsonQ
}
