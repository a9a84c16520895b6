package gallery

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"gallery/internal/domain"

	"github.com/samber/lo"
)

const fileField = "image"

type formValues map[string][]string

func (v formValues) get(key string) (string, bool) {
	vals, ok := v[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func createRequestFromForm(values formValues) (CreateImageRequest, map[string]string) {
	var req CreateImageRequest
	fields := map[string]string{}

	req.Title, _ = values.get("title")
	req.Description, _ = values.get("description")
	if raw, ok := values.get("category"); ok {
		req.Category = domain.Category(strings.TrimSpace(raw))
	}
	if raw, ok := values.get("tags"); ok {
		tags, err := parseTags(raw)
		if err != nil {
			fields["tags"] = "json_array"
		}
		req.Tags = tags
	}
	if raw, ok := values.get("is_public"); ok && strings.TrimSpace(raw) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			fields["is_public"] = "boolean"
		}
		req.IsPublic = &b
	}

	if len(fields) == 0 {
		return req, nil
	}
	return req, fields
}

// updateRequestFromForm sets only the fields present in the form.
func updateRequestFromForm(values formValues) (UpdateImageRequest, map[string]string) {
	var req UpdateImageRequest
	fields := map[string]string{}

	if raw, ok := values.get("title"); ok {
		req.Title = lo.ToPtr(raw)
	}
	if raw, ok := values.get("description"); ok {
		req.Description = lo.ToPtr(raw)
	}
	if raw, ok := values.get("category"); ok {
		req.Category = lo.ToPtr(domain.Category(strings.TrimSpace(raw)))
	}
	if raw, ok := values.get("tags"); ok {
		tags, err := parseTags(raw)
		if err != nil {
			fields["tags"] = "json_array"
		}
		req.Tags = &tags
	}
	if raw, ok := values.get("is_public"); ok && strings.TrimSpace(raw) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			fields["is_public"] = "boolean"
		}
		req.IsPublic = &b
	}

	if len(fields) == 0 {
		return req, nil
	}
	return req, fields
}

// parseTags accepts a JSON array of strings or a comma separated list.
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, err
		}
		return tags, nil
	}
	return strings.Split(raw, ","), nil
}

func formFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := form.File[fileField]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
