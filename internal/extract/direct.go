package extract

import (
	"context"
	"net/url"
	"path"

	"github.com/streamgate/streamgate/internal/media"
)

// DirectLink handles URLs that already point at a media file. No scraping
// involved; the URL itself is the only format.
type DirectLink struct{}

func (DirectLink) PlatformName() string { return "direct" }

func (DirectLink) Matches(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := path.Ext(u.Path)
	return ext != "" && media.MIMEFromExtension(ext) != ""
}

func (DirectLink) Extract(_ context.Context, rawURL string, _ Options) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	mime := media.MIMEFromExtension(path.Ext(u.Path))
	title := path.Base(u.Path)
	return &Result{
		Platform: "direct",
		Title:    title,
		Formats: []media.Format{{
			URL:  rawURL,
			MIME: mime,
		}},
	}, nil
}
