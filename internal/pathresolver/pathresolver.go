// Package pathresolver provides host-aware resolution of well-known
// directories, PATH-based executable lookup, and bundled-tool discovery
// under vendor IDE installation trees.
package pathresolver

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/AndreyAkinshin/kitscan/internal/kit"
	"github.com/AndreyAkinshin/kitscan/internal/output"
)

// dataDirName is the fixed literal joined onto the user data/config dir.
const dataDirName = "CMakeTools"

// Resolver implements the Path Resolver component. It carries no shared
// mutable state: per spec.md §9's preferred resolution of the "global
// Ninja slot" design note, the bundled-Ninja hint discovered while
// resolving CMake is returned from ResolveCMake rather than stashed on the
// Resolver, so concurrent ResolveCMake calls need no synchronization.
type Resolver struct {
	goos string // runtime.GOOS, overridable for cross-platform testing
	out  *output.Writer
}

// New creates a Resolver for the current host.
func New(out *output.Writer) *Resolver {
	return &Resolver{goos: runtime.GOOS, out: out}
}

// forOS creates a Resolver pinned to a specific GOOS value, used by tests
// to exercise Windows-only logic from any host.
func forOS(goos string, out *output.Writer) *Resolver {
	return &Resolver{goos: goos, out: out}
}

func (r *Resolver) isWindows() bool { return r.goos == "windows" }

func (r *Resolver) warnMissingEnv(name string) {
	if r.out != nil {
		r.out.Warning("environment variable %s is not set", name)
	}
}

// UserHome returns the current user's home directory.
func (r *Resolver) UserHome() string {
	if r.isWindows() {
		drive := os.Getenv("HOMEDRIVE")
		if drive == "" {
			r.warnMissingEnv("HOMEDRIVE")
			drive = "C:"
		}
		path := os.Getenv("HOMEPATH")
		if path == "" {
			r.warnMissingEnv("HOMEPATH")
			path = `Users\Public`
		}
		return drive + path
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if profile := os.Getenv("PROFILE"); profile != "" {
		return profile
	}
	r.warnMissingEnv("HOME")
	return ""
}

// UserLocalDir returns the per-user local (non-roaming) data directory.
func (r *Resolver) UserLocalDir() string {
	if r.isWindows() {
		if v := os.Getenv("LOCALAPPDATA"); v != "" {
			return v
		}
		r.warnMissingEnv("LOCALAPPDATA")
		return filepath.Join(r.UserHome(), "AppData", "Local")
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	return filepath.Join(r.UserHome(), ".local", "share")
}

// UserRoamingDir returns the per-user roaming/config data directory.
func (r *Resolver) UserRoamingDir() string {
	if r.isWindows() {
		if v := os.Getenv("APPDATA"); v != "" {
			return v
		}
		r.warnMissingEnv("APPDATA")
		return filepath.Join(r.UserHome(), "AppData", "Roaming")
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(r.UserHome(), ".config")
}

// DataDir returns the directory kits-related state is written to.
func (r *Resolver) DataDir() string {
	return filepath.Join(r.UserLocalDir(), dataDirName)
}

// RoamingDataDir returns the legacy roaming directory for kits state.
func (r *Resolver) RoamingDataDir() string {
	return filepath.Join(r.UserRoamingDir(), dataDirName)
}

// TmpDir returns the host's temporary directory.
func (r *Resolver) TmpDir() string {
	if r.isWindows() {
		if v := os.Getenv("TEMP"); v != "" {
			return v
		}
		r.warnMissingEnv("TEMP")
		return filepath.Join(r.UserLocalDir(), "Temp")
	}
	return "/tmp"
}

func (r *Resolver) pathSeparator() rune {
	if r.isWindows() {
		return ';'
	}
	return ':'
}

func (r *Resolver) pathExts() []string {
	if !r.isWindows() {
		return nil
	}
	raw := os.Getenv("PATHEXT")
	if raw == "" {
		return []string{".COM", ".EXE", ".BAT", ".CMD"}
	}
	return strings.Split(raw, string(r.pathSeparator()))
}

// Which returns the first PATH entry whose basename equals name, with
// PATHEXT expansion on Windows; empty string on miss.
func (r *Resolver) Which(name string) string {
	pathVar := os.Getenv("PATH")
	if pathVar == "" {
		return ""
	}
	dirs := strings.Split(pathVar, string(r.pathSeparator()))

	candidates := []string{name}
	if r.isWindows() && filepath.Ext(name) == "" {
		for _, ext := range r.pathExts() {
			candidates = append(candidates, name+ext)
		}
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, cand := range candidates {
			full := filepath.Join(dir, cand)
			if fi, err := os.Stat(full); err == nil && !fi.IsDir() {
				return full
			}
		}
	}
	return ""
}

// CMakeResolution is the result of ResolveCMake: the resolved cmake path
// plus, if selecting a bundled vendor installation, the sibling bundled
// Ninja directory the Vendor SDK Environment Extractor should append to
// PATH.
type CMakeResolution struct {
	CMakePath    string
	BundledNinja string // directory, not the executable path; empty if none
}

// ResolveCMake expands placeholders in rawPath via expand, then resolves
// "auto"/"cmake" sentinels against PATH and, on Windows, well-known
// ProgramFiles locations and vendor installation trees.
func (r *Resolver) ResolveCMake(rawPath string, vars map[string]string, expand func(string, map[string]string) (string, error), installations []kit.VendorInstallation) (CMakeResolution, error) {
	resolved := rawPath
	if expand != nil {
		v, err := expand(rawPath, vars)
		if err != nil {
			return CMakeResolution{}, err
		}
		resolved = v
	}

	if resolved != "auto" && resolved != "cmake" {
		return CMakeResolution{CMakePath: resolved}, nil
	}

	if found := r.Which("cmake"); found != "" {
		return CMakeResolution{CMakePath: found}, nil
	}

	if !r.isWindows() {
		return CMakeResolution{}, nil
	}

	candidates := []string{}
	if pf := os.Getenv("ProgramFiles"); pf != "" {
		candidates = append(candidates, filepath.Join(pf, "CMake", "bin", "cmake.exe"))
	}
	if pf86 := os.Getenv("ProgramFiles(x86)"); pf86 != "" {
		candidates = append(candidates, filepath.Join(pf86, "CMake", "bin", "cmake.exe"))
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return CMakeResolution{CMakePath: c}, nil
		}
	}

	for _, inst := range installations {
		bundled := filepath.Join(inst.InstallationPath, "Common7", "IDE", "CommonExtensions",
			"Microsoft", "CMake", "CMake", "bin", "cmake.exe")
		if fi, err := os.Stat(bundled); err == nil && !fi.IsDir() {
			ninjaDir := filepath.Join(inst.InstallationPath, "Common7", "IDE", "CommonExtensions",
				"Microsoft", "CMake", "Ninja")
			res := CMakeResolution{CMakePath: bundled}
			if fi, err := os.Stat(filepath.Join(ninjaDir, "ninja.exe")); err == nil && !fi.IsDir() {
				res.BundledNinja = ninjaDir
			}
			return res, nil
		}
	}

	return CMakeResolution{}, nil
}

// ResolveCTest returns the ctest sibling of cmakePath if it exists and has
// any execute bit set; otherwise the bare name "ctest".
func (r *Resolver) ResolveCTest(cmakePath string) string {
	if cmakePath == "" {
		return "ctest"
	}
	dir := filepath.Dir(cmakePath)
	name := "ctest"
	if r.isWindows() {
		name = "ctest.exe"
	}
	candidate := filepath.Join(dir, name)
	fi, err := os.Stat(candidate)
	if err != nil || fi.IsDir() {
		return "ctest"
	}
	if !r.isWindows() && fi.Mode()&0111 == 0 {
		return "ctest"
	}
	return candidate
}
