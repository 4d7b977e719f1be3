package install

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"v2deck/internal/config"
	"v2deck/internal/logger"
)

// Installer downloads, extracts and removes the two engine executables.
type Installer struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Installer {
	return &Installer{cfg: cfg}
}

// Binaries reports the install state of both executables.
type Binaries struct {
	XrayInstalled      bool   `json:"xray_installed"`
	Tun2socksInstalled bool   `json:"tun2socks_installed"`
	AllInstalled       bool   `json:"all_installed"`
	XrayVersion        string `json:"xray_version"`
	Tun2socksVersion   string `json:"tun2socks_version"`
}

func (i *Installer) Check() Binaries {
	b := Binaries{
		XrayInstalled:      isExecutable(i.cfg.XrayBin()),
		Tun2socksInstalled: isExecutable(i.cfg.Tun2socksBin()),
		XrayVersion:        config.XrayVersion,
		Tun2socksVersion:   config.Tun2socksVersion,
	}
	b.AllInstalled = b.XrayInstalled && b.Tun2socksInstalled
	return b
}

// EnsureExecutable restores the exec bit on binaries that are present but
// not runnable. Copying state between machines tends to lose file modes.
func (i *Installer) EnsureExecutable() {
	for _, path := range []string{i.cfg.XrayBin(), i.cfg.Tun2socksBin()} {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Mode().Perm()&0111 != 0 {
			continue
		}
		if err := os.Chmod(path, 0755); err != nil {
			logger.Log.Warnf("failed to restore exec bit on %s: %v", path, err)
		}
	}
}

// Install fetches and unpacks both release archives.
func (i *Installer) Install() error {
	if err := os.MkdirAll(i.cfg.BinDir, 0755); err != nil {
		return err
	}
	if err := i.installXray(); err != nil {
		return err
	}
	return i.installTun2socks()
}

// Uninstall wipes the binary directory and recreates it empty.
func (i *Installer) Uninstall() error {
	if err := os.RemoveAll(i.cfg.BinDir); err != nil {
		return fmt.Errorf("failed to remove bin dir: %w", err)
	}
	return os.MkdirAll(i.cfg.BinDir, 0755)
}

func (i *Installer) installXray() error {
	logger.Log.Infof("Downloading xray-core v%s...", config.XrayVersion)

	tempDir, err := os.MkdirTemp(i.cfg.RuntimeDir, "xray-dl-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	zipPath := filepath.Join(tempDir, "xray.zip")
	if err := download(i.cfg.XrayURL, zipPath, "xray-core"); err != nil {
		return fmt.Errorf("failed to download xray: %w", err)
	}
	if err := unzip(zipPath, tempDir); err != nil {
		return fmt.Errorf("failed to extract xray: %w", err)
	}

	if err := copyFile(filepath.Join(tempDir, "xray"), i.cfg.XrayBin(), 0755); err != nil {
		return fmt.Errorf("failed to install xray binary: %w", err)
	}

	// Routing rule databases ship in the same archive
	for _, dat := range []string{"geoip.dat", "geosite.dat"} {
		src := filepath.Join(tempDir, dat)
		if _, err := os.Stat(src); err == nil {
			if err := copyFile(src, filepath.Join(i.cfg.BinDir, dat), 0644); err != nil {
				logger.Log.Warnf("failed to install %s: %v", dat, err)
			}
		}
	}

	logger.Log.Info("xray-core installed")
	return nil
}

func (i *Installer) installTun2socks() error {
	logger.Log.Infof("Downloading tun2socks v%s...", config.Tun2socksVersion)

	tempDir, err := os.MkdirTemp(i.cfg.RuntimeDir, "tun2socks-dl-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	zipPath := filepath.Join(tempDir, "tun2socks.zip")
	if err := download(i.cfg.Tun2socksURL, zipPath, "tun2socks"); err != nil {
		return fmt.Errorf("failed to download tun2socks: %w", err)
	}
	if err := unzip(zipPath, tempDir); err != nil {
		return fmt.Errorf("failed to extract tun2socks: %w", err)
	}

	// The archive names the binary per platform; take the first match.
	installed := false
	err = filepath.WalkDir(tempDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || installed || d.IsDir() {
			return err
		}
		name := strings.ToLower(d.Name())
		if strings.Contains(name, "tun2socks") && !strings.HasSuffix(name, ".zip") {
			if err := copyFile(path, i.cfg.Tun2socksBin(), 0755); err != nil {
				return err
			}
			installed = true
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to install tun2socks binary: %w", err)
	}
	if !installed {
		return fmt.Errorf("no tun2socks binary found in archive")
	}

	logger.Log.Info("tun2socks installed")
	return nil
}

func download(url, dest, desc string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan]"+desc+"[reset]"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	_, err = io.Copy(io.MultiWriter(f, bar), resp.Body)
	return err
}

func unzip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		dest := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode().Perm()&0111 != 0
}
