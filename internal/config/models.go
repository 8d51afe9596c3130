package config

import (
	"strings"
	"time"
)

// Output formats understood by the CLI
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Registry represents the entire user configuration file.
// It stores preferences and user-defined metadata for known controllers.
type Registry struct {
	Version     int                    `yaml:"version"`
	Controllers map[string]*Controller `yaml:"controllers,omitempty"` // Keyed by controller MAC
	Preferences *Preferences           `yaml:"preferences,omitempty"`
}

// Controller represents user-defined metadata for a single controller.
// This is keyed by the controller's MAC address in the Registry.
type Controller struct {
	Nickname     string    `yaml:"nickname,omitempty"`       // User-friendly name
	LastSeen     time.Time `yaml:"last_seen,omitempty"`      // Last successful status read
	LastDeviceID string    `yaml:"last_device_id,omitempty"` // Device identity from the last status frame
	LastMode     string    `yaml:"last_mode,omitempty"`      // Operating mode at the last status read
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	UserID            string       `yaml:"user_id,omitempty"`            // Navien account user ID
	DefaultController string       `yaml:"default_controller,omitempty"` // MAC used when none is given
	OutputFormat      string       `yaml:"output_format"`                // "text" or "json"
	LogLevel          string       `yaml:"log_level,omitempty"`          // Empty = silent
	TimeoutSeconds    int          `yaml:"timeout_seconds"`              // Relay HTTP and socket timeout
	Bridge            *BridgePrefs `yaml:"bridge,omitempty"`
	// Password and login token are NEVER stored in the config file
}

// BridgePrefs configures the WebSocket bridge
type BridgePrefs struct {
	Listen              string `yaml:"listen"`                // host:port for the HTTP/WebSocket server
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"` // Status poll period
	Advertise           bool   `yaml:"advertise"`             // Announce the bridge over mDNS
}

func defaultPreferences() *Preferences {
	return &Preferences{
		OutputFormat:   FormatText,
		TimeoutSeconds: 10,
		Bridge:         defaultBridgePrefs(),
	}
}

func defaultBridgePrefs() *BridgePrefs {
	return &BridgePrefs{
		Listen:              ":8080",
		PollIntervalSeconds: 60,
		Advertise:           false,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Controllers: make(map[string]*Controller),
		Preferences: defaultPreferences(),
	}
}

// NormalizeMAC upper-cases a MAC and strips ':' and '-' separators
func NormalizeMAC(mac string) string {
	r := strings.NewReplacer(":", "", "-", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(mac)))
}

// GetController retrieves controller metadata by MAC.
// Returns nil if the controller doesn't exist in the registry.
func (r *Registry) GetController(mac string) *Controller {
	return r.Controllers[NormalizeMAC(mac)]
}

// EnsureController ensures a controller entry exists in the registry and
// returns it.
func (r *Registry) EnsureController(mac string) *Controller {
	if r.Controllers == nil {
		r.Controllers = make(map[string]*Controller)
	}

	mac = NormalizeMAC(mac)
	if c, exists := r.Controllers[mac]; exists {
		return c
	}

	c := &Controller{}
	r.Controllers[mac] = c
	return c
}

// RecordStatus updates the last seen data for a controller after a
// successful status read.
func (r *Registry) RecordStatus(mac, deviceID, mode string) {
	c := r.EnsureController(mac)
	c.LastSeen = time.Now()
	c.LastDeviceID = deviceID
	c.LastMode = mode
}

// SetControllerNickname sets a user-friendly nickname for a controller.
func (r *Registry) SetControllerNickname(mac, nickname string) {
	r.EnsureController(mac).Nickname = nickname
}

// RemoveController deletes a controller entry. It reports whether one existed.
func (r *Registry) RemoveController(mac string) bool {
	mac = NormalizeMAC(mac)
	if _, ok := r.Controllers[mac]; !ok {
		return false
	}
	delete(r.Controllers, mac)
	if r.Preferences != nil && r.Preferences.DefaultController == mac {
		r.Preferences.DefaultController = ""
	}
	return true
}

// ResolveController maps a nickname or MAC to a MAC. An empty name resolves
// to the default controller. Unknown names are returned normalized, since
// any MAC from the gateway list is valid even before it is recorded.
func (r *Registry) ResolveController(name string) string {
	if strings.TrimSpace(name) == "" {
		if r.Preferences != nil {
			return r.Preferences.DefaultController
		}
		return ""
	}

	for mac, c := range r.Controllers {
		if c.Nickname != "" && strings.EqualFold(c.Nickname, name) {
			return mac
		}
	}
	return NormalizeMAC(name)
}

// DisplayName returns the nickname for mac, or mac itself
func (r *Registry) DisplayName(mac string) string {
	if c := r.GetController(mac); c != nil && c.Nickname != "" {
		return c.Nickname
	}
	return mac
}
