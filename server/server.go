package server

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var ServerStatus string = "unknown"

func BackendServer(
	db *gorm.DB,
	config Config,
) (*http.Server, string) {
	var protocol string
	var fullHost string

	router := BackendRouting(config)
	if config.SSL {
		protocol = "https"
	} else {
		protocol = "http"
	}

	fullHost = fmt.Sprintf("%s://%s:%d", protocol, config.Host, config.Port)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: DatabaseMiddleware(db)(router),
	}

	return server, fullHost
}
