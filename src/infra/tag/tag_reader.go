package tag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/contre95/bandpass/src/music"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
)

// TagReader reads title, artist, album and artwork from audio files. dhowden/tag is
// tried first; MP3 and FLAC files it cannot parse get a second chance with the
// format specific libraries.
type TagReader struct{}

// NewTagReader creates a new TagReader
func NewTagReader() *TagReader {
	return &TagReader{}
}

// ReadMetadata implements music.MetadataReader. Missing fields are left empty.
func (r *TagReader) ReadMetadata(ctx context.Context, filePath string) (*music.TrackMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	md, err := r.readCommon(filePath)
	if err == nil {
		return md, nil
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	var fallbackErr error
	switch ext {
	case ".mp3":
		md, fallbackErr = r.readID3(filePath)
	case ".flac":
		md, fallbackErr = r.readFLAC(filePath)
	default:
		return nil, err
	}
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	slog.Debug("Read tags with fallback reader", "path", filePath, "format", ext)
	return md, nil
}

// readCommon uses dhowden/tag, which understands ID3, MP4 and Vorbis comments.
func (r *TagReader) readCommon(filePath string) (*music.TrackMetadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	md := &music.TrackMetadata{
		Title:  strings.TrimSpace(tags.Title()),
		Artist: strings.TrimSpace(tags.Artist()),
		Album:  strings.TrimSpace(tags.Album()),
	}
	if md.Artist == "" {
		md.Artist = strings.TrimSpace(tags.AlbumArtist())
	}
	if pic := tags.Picture(); pic != nil && len(pic.Data) > 0 {
		md.Artwork = pic.Data
	}
	return md, nil
}

// readID3 reads an ID3v2 tag with bogem/id3v2.
func (r *TagReader) readID3(filePath string) (*music.TrackMetadata, error) {
	id3, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 tags: %w", err)
	}
	defer id3.Close()

	md := &music.TrackMetadata{
		Title:  strings.TrimSpace(id3.Title()),
		Artist: strings.TrimSpace(id3.Artist()),
		Album:  strings.TrimSpace(id3.Album()),
	}
	for _, frame := range id3.GetFrames(id3.CommonID("Attached picture")) {
		pic, ok := frame.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		if md.Artwork == nil || pic.PictureType == id3v2.PTFrontCover {
			md.Artwork = pic.Picture
		}
	}
	return md, nil
}

// readFLAC reads Vorbis comments and the PICTURE block with go-flac.
func (r *TagReader) readFLAC(filePath string) (*music.TrackMetadata, error) {
	f, err := goflac.ParseFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	md := &music.TrackMetadata{}
	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				slog.Warn("Failed to parse Vorbis comment", "path", filePath, "error", err)
				continue
			}
			md.Title = firstComment(cmt, flacvorbis.FIELD_TITLE)
			md.Artist = firstComment(cmt, flacvorbis.FIELD_ARTIST)
			md.Album = firstComment(cmt, flacvorbis.FIELD_ALBUM)
		case goflac.Picture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
			if err != nil {
				slog.Warn("Failed to parse FLAC picture", "path", filePath, "error", err)
				continue
			}
			if len(pic.ImageData) > 0 && (md.Artwork == nil || pic.PictureType == flacpicture.PictureTypeFrontCover) {
				md.Artwork = pic.ImageData
			}
		}
	}
	return md, nil
}

func firstComment(cmt *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	values, err := cmt.Get(field)
	if err != nil || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
