package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the document API description.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>mongodriver API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "mongodriver", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Document": { "type": "object", "properties": { "_id": { "type": "string" } }, "additionalProperties": true },
      "Query": { "type": "object", "properties": { "filter": { "type": "object" }, "values": { "type": "object" }, "sort": { "type": "array", "items": { "type": "object", "properties": { "key": { "type": "string" }, "descending": { "type": "boolean" } } } } } },
      "Mutation": { "type": "object", "properties": { "document": { "$ref": "#/components/schemas/Document" }, "outcome": { "type": "string", "enum": ["unchanged", "applied", "no_matching_record", "removed"] } } }
    }
  },
  "paths": {
    "/api/documents": {
      "get": { "summary": "Load every record", "responses": { "200": { "description": "documents" } } },
      "post": { "summary": "Create a record", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Document" } } } }, "responses": { "201": { "description": "created" }, "400": { "description": "invalid _id or field" }, "409": { "description": "duplicate _id" } } }
    },
    "/api/documents/search": {
      "post": { "summary": "Find records matching filter", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Query" } } } }, "responses": { "200": { "description": "documents" } } }
    },
    "/api/documents/find-one": {
      "post": { "summary": "First record matching filter", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Query" } } } }, "responses": { "200": { "description": "document" }, "404": { "description": "no match" } } }
    },
    "/api/documents/update": {
      "post": { "summary": "Set values on the first record matching filter", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Query" } } } }, "responses": { "200": { "description": "updated document" }, "404": { "description": "no match" } } }
    },
    "/api/documents/remove": {
      "post": { "summary": "Delete the first record matching filter", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Query" } } } }, "responses": { "200": { "description": "removed flag" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Load one record", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Set several fields", "responses": { "200": { "description": "mutation" } } },
      "delete": { "summary": "Remove the record", "responses": { "200": { "description": "mutation" } } }
    },
    "/api/documents/{id}/fields/{key}": {
      "put": { "summary": "Set one field", "responses": { "200": { "description": "mutation" } } },
      "delete": { "summary": "Unset one field", "responses": { "200": { "description": "mutation" }, "404": { "description": "no such field" } } }
    },
    "/api/snapshots": {
      "post": { "summary": "Export the collection as JSON lines", "responses": { "201": { "description": "snapshot info" } } }
    },
    "/api/snapshots/{key}": {
      "get": { "summary": "Download a snapshot", "responses": { "200": { "description": "application/x-ndjson" }, "404": { "description": "not found" } } }
    },
    "/api/snapshots/{key}/restore": {
      "post": { "summary": "Recreate records from a snapshot", "responses": { "200": { "description": "restored and skipped counts" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
