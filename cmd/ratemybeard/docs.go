package main

// General API documentation for swaggo. Run `swag init` to generate docs.
//
// @title           ratemybeard API
// @version         1.0
// @description     HTTP API for ensemble facial attractiveness scoring.
//
// @contact.name   ratemybeard maintainers
// @contact.url    https://github.com/jsukup/ratemybeard
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
