package models

// ResizeRequest is one resize call. It is built per call and passed by value.
// Width or Height of 0 leaves that axis unconstrained.
type ResizeRequest struct {
	URI        string `json:"uri"`
	FolderName string `json:"folderName,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	Quality    int    `json:"quality"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     string `json:"format,omitempty"`
	Publish    bool   `json:"publish,omitempty"`
}

// ResizeResult describes the written image.
type ResizeResult struct {
	URI        string `json:"uri"`
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleSize int    `json:"sample_size"`
	Format     string `json:"format"`
	FileSize   int64  `json:"file_size"`
	PublicURL  string `json:"public_url,omitempty"`
}

// SizeRequest is one size probe call.
type SizeRequest struct {
	Data          string `json:"data"`
	ImageDataType string `json:"imageDataType,omitempty"`
	Format        string `json:"format,omitempty"`
}

type SizeResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimensions is the intrinsic size of a source image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

const (
	ImageDataTypeURL    = "urlImage"
	ImageDataTypeBase64 = "base64Image"
)
