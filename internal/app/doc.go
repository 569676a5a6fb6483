// Package app wires the doorstroom monitor together: configuration,
// logging, metrics, the session store, the websocket hub, the business
// services and the HTTP route tree, plus the server lifecycle with
// graceful shutdown.
package app
