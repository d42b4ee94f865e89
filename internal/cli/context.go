// Package cli provides the command-line interface for the farmaprice application.
package cli

import (
	"github.com/price-hounds/farmaprice/internal/app"
)

// Global reference to the running application, set up by the root command's
// PersistentPreRunE and torn down after the command finishes.
var globalApp *app.Application

// SetApp stores the Application for commands to access
func SetApp(a *app.Application) {
	globalApp = a
}

// GetApp retrieves the running Application
func GetApp() *app.Application {
	return globalApp
}
