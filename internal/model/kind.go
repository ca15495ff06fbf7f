package model

import "strings"

// FileKind is a semantic file category backed by a fixed extension set.
// The mapping is static and not user-editable.
type FileKind string

// File kind constants.
const (
	KindImage    FileKind = "image"
	KindVideo    FileKind = "video"
	KindDocument FileKind = "document"
	KindAudio    FileKind = "audio"
	KindArchive  FileKind = "archive"
	KindCode     FileKind = "code"
)

var kindExtensions = map[FileKind][]string{
	KindImage:    {"jpg", "jpeg", "png", "gif", "bmp", "tiff", "heic", "webp", "svg", "raw", "ico"},
	KindVideo:    {"mp4", "mov", "avi", "mkv", "wmv", "flv", "webm", "m4v", "mpg", "mpeg"},
	KindDocument: {"pdf", "doc", "docx", "txt", "rtf", "odt", "pages", "md", "xls", "xlsx", "csv", "ppt", "pptx", "key", "numbers"},
	KindAudio:    {"mp3", "wav", "aac", "flac", "ogg", "m4a", "aiff", "wma"},
	KindArchive:  {"zip", "tar", "gz", "bz2", "xz", "rar", "7z", "dmg", "iso"},
	KindCode:     {"go", "py", "js", "ts", "c", "cpp", "h", "java", "rb", "rs", "sh", "swift", "sql", "html", "css", "json", "yaml", "yml", "toml", "xml"},
}

// Valid reports whether the kind is one of the known categories.
func (k FileKind) Valid() bool {
	_, ok := kindExtensions[k]
	return ok
}

// Contains reports whether the extension belongs to this kind's extension
// set. The comparison is case-insensitive and ignores a leading dot.
func (k FileKind) Contains(extension string) bool {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	for _, candidate := range kindExtensions[k] {
		if candidate == ext {
			return true
		}
	}
	return false
}

// Display returns the capitalized kind name for match reasons.
func (k FileKind) Display() string {
	if k == "" {
		return ""
	}
	s := string(k)
	return strings.ToUpper(s[:1]) + s[1:]
}

// AllKinds lists the known file kinds in a stable order.
func AllKinds() []FileKind {
	return []FileKind{KindImage, KindVideo, KindDocument, KindAudio, KindArchive, KindCode}
}
