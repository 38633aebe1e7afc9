package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/sagarc03/photoblog"
)

// maxBodySize limits JSON request bodies.
const maxBodySize = 1 << 20

// tagList accepts a JSON array of strings or a comma separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = photoblog.SplitTags(s)
		return nil
	}

	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return errors.New("tags must be an array of strings or a comma separated string")
	}
	*t = tags
	return nil
}

type uploadTargetRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// uploadTargetResponse also carries the field names older clients read.
type uploadTargetResponse struct {
	photoblog.UploadTarget
	PresignedURL string `json:"presignedUrl"`
	S3Key        string `json:"s3Key"`
}

type createRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ObjectKey   string  `json:"objectKey"`
	S3Key       string  `json:"s3Key"`
	Tags        tagList `json:"tags"`
	Location    *string `json:"location"`
	Camera      *string `json:"camera"`
}

func (r createRequest) toCreate() photoblog.CreatePhoto {
	key := r.ObjectKey
	if key == "" {
		key = r.S3Key
	}

	c := photoblog.CreatePhoto{
		Title:       r.Title,
		Description: r.Description,
		ObjectKey:   key,
		Tags:        r.Tags,
	}
	if r.Location != nil {
		c.Location = *r.Location
	}
	if r.Camera != nil {
		c.Camera = *r.Camera
	}
	return c
}

type updateRequest struct {
	Title       photoblog.Optional[string]  `json:"title"`
	Description photoblog.Optional[string]  `json:"description"`
	ObjectKey   photoblog.Optional[string]  `json:"objectKey"`
	S3Key       photoblog.Optional[string]  `json:"s3Key"`
	Tags        photoblog.Optional[tagList] `json:"tags"`
	Location    photoblog.Optional[string]  `json:"location"`
	Camera      photoblog.Optional[string]  `json:"camera"`
}

func (r updateRequest) toUpdate() photoblog.PhotoUpdate {
	key := r.ObjectKey
	if !key.Set {
		key = r.S3Key
	}

	u := photoblog.PhotoUpdate{
		Title:       r.Title,
		Description: r.Description,
		ObjectKey:   key,
		Location:    r.Location,
		Camera:      r.Camera,
	}
	if r.Tags.Set {
		u.Tags = photoblog.Some([]string(r.Tags.Value))
	}
	return u
}

// decodeJSON reads a JSON body into v. Malformed bodies are validation failures.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("decode request body: %w", err)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("decode request body: %w: body is required", photoblog.ErrValidationFailed)
		}
		return fmt.Errorf("decode request body: %w: %s", photoblog.ErrValidationFailed, err.Error())
	}
	return nil
}

// parseID parses a photo id. A value that is not a UUID cannot name a photo.
func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse photo id %q: %w", s, photoblog.ErrNotFound)
	}
	return id, nil
}

// parseListQuery reads page, limit, search and tag. Absent numbers select the defaults.
func parseListQuery(values url.Values) (photoblog.ListQuery, error) {
	page, err := optionalInt(values, "page")
	if err != nil {
		return photoblog.ListQuery{}, err
	}
	limit, err := optionalInt(values, "limit")
	if err != nil {
		return photoblog.ListQuery{}, err
	}

	return photoblog.ListQuery{
		Page:     page,
		PageSize: limit,
		Search:   values.Get("search"),
		Tag:      values.Get("tag"),
	}, nil
}

func optionalInt(values url.Values, name string) (int, error) {
	s := values.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("parse %s: %w: must be a positive integer", name, photoblog.ErrValidationFailed)
	}
	return n, nil
}
