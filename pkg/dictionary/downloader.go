package dictionary

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultDictFileName = "jmdict-eng-common.json"
	repoOwner           = "scriptin"
	repoName            = "jmdict-simplified"
)

// Downloader fetches the latest jmdict-simplified release from GitHub.
type Downloader struct {
	http *resty.Client
	// APIBase is the GitHub API root; tests point it at an httptest server.
	APIBase string
	Logger  *slog.Logger
}

func NewDownloader() *Downloader {
	client := resty.New().
		SetTimeout(5*time.Minute).
		SetHeader("User-Agent", "talkwords-cli")
	return &Downloader{
		http:    client,
		APIBase: "https://api.github.com",
		Logger:  slog.Default(),
	}
}

// EnsureDictionary checks if the dictionary exists at path.
// If not, it discovers the latest release from GitHub, downloads it, and decompresses it.
func EnsureDictionary(ctx context.Context, path string) error {
	return NewDownloader().Ensure(ctx, path)
}

func (d *Downloader) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	d.Logger.Info("dictionary not found, downloading", "path", path)
	downloadURL, err := d.latestReleaseAssetURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to find latest dictionary release: %w", err)
	}
	d.Logger.Info("downloading dictionary", "url", downloadURL)
	return d.downloadAndExtract(ctx, downloadURL, path)
}

func (d *Downloader) latestReleaseAssetURL(ctx context.Context) (string, error) {
	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	apiURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", d.APIBase, repoOwner, repoName)
	resp, err := d.http.R().
		SetContext(ctx).
		SetResult(&release).
		Get(apiURL)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("github api returned status: %s", resp.Status())
	}

	// jmdict-eng-common-<version>.json.tgz (or .json.gz)
	for _, asset := range release.Assets {
		if strings.Contains(asset.Name, "jmdict-eng-common") && (strings.HasSuffix(asset.Name, ".json.tgz") || strings.HasSuffix(asset.Name, ".json.gz")) {
			return asset.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("no suitable dictionary asset found in latest release")
}

func (d *Downloader) downloadAndExtract(ctx context.Context, url, destPath string) error {
	resp, err := d.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return fmt.Errorf("download failed: %s", resp.Status())
	}

	gzReader, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
			return writeAtomically(destPath, tarReader)
		}
	}
	return fmt.Errorf("no json file found in downloaded archive")
}

// writeAtomically copies r into a temporary file next to path and renames it into
// place, so an interrupted download never leaves a truncated dictionary behind.
func writeAtomically(path string, r io.Reader) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jmdict-*.json")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
