package mockapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
)

// maxUpload bounds multipart bodies.
const maxUpload = 32 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response in the backend's {"message"} shape.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"message": message})
}

// upload is a file part received with a form.
type upload struct {
	Field string
	Data  []byte
}

// readForm decodes a multipart, urlencoded or JSON body into flat string
// values. The file part named fileField, if any, is returned separately.
func readForm(r *http.Request, fileField string) (map[string]string, *upload, error) {
	values := make(map[string]string)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return nil, nil, fmt.Errorf("parsing multipart body: %w", err)
		}
		for k, vs := range r.MultipartForm.Value {
			if len(vs) > 0 {
				values[k] = vs[0]
			}
		}
		if fileField == "" {
			return values, nil, nil
		}
		fhs := r.MultipartForm.File[fileField]
		if len(fhs) == 0 {
			return values, nil, nil
		}
		f, err := fhs[0].Open()
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", fileField, err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", fileField, err)
		}
		return values, &upload{Field: fileField, Data: data}, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, fmt.Errorf("parsing form body: %w", err)
		}
		for k := range r.PostForm {
			values[k] = r.PostForm.Get(k)
		}
		return values, nil, nil

	default:
		defer r.Body.Close()
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			if err == io.EOF {
				return values, nil, nil
			}
			return nil, nil, fmt.Errorf("decoding JSON body: %w", err)
		}
		for k, v := range raw {
			switch v := v.(type) {
			case nil:
			case string:
				values[k] = v
			case float64:
				values[k] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				values[k] = strconv.FormatBool(v)
			default:
				data, _ := json.Marshal(v)
				values[k] = string(data)
			}
		}
		return values, nil, nil
	}
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
