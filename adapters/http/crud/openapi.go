package crud

import (
	"net/http"
	"strconv"

	"github.com/artpar/crudgate/domain/resource"
)

// OpenAPISpec is the top-level OpenAPI 3.1 document, built at runtime from
// the live schema set. A compile-time document cannot describe routes that
// are generated from configuration.
type OpenAPISpec struct {
	OpenAPI string              `json:"openapi"`
	Info    OpenAPIInfo         `json:"info"`
	Paths   map[string]PathItem `json:"paths"`
}

// OpenAPIInfo holds API metadata.
type OpenAPIInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// PathItem maps lowercase HTTP methods to operations.
type PathItem map[string]OpenAPIOperation

// OpenAPIOperation describes a single API operation on a path.
type OpenAPIOperation struct {
	Summary     string              `json:"summary,omitempty"`
	OperationID string              `json:"operationId,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Parameters  []OpenAPIParameter  `json:"parameters,omitempty"`
	RequestBody *OpenAPIRequestBody `json:"requestBody,omitempty"`
	Responses   map[string]OpenAPIResponse `json:"responses"`
}

// OpenAPIParameter describes a query or path parameter.
type OpenAPIParameter struct {
	Name     string     `json:"name"`
	In       string     `json:"in"`
	Required bool       `json:"required,omitempty"`
	Schema   JSONSchema `json:"schema"`
}

// OpenAPIRequestBody describes a JSON request body.
type OpenAPIRequestBody struct {
	Required bool                      `json:"required"`
	Content  map[string]OpenAPIContent `json:"content"`
}

// OpenAPIContent is a media type object.
type OpenAPIContent struct {
	Schema JSONSchema `json:"schema"`
}

// OpenAPIResponse describes one response status.
type OpenAPIResponse struct {
	Description string                    `json:"description"`
	Content     map[string]OpenAPIContent `json:"content,omitempty"`
}

// JSONSchema is the subset of JSON Schema the generated routes need.
type JSONSchema struct {
	Type       string                `json:"type,omitempty"`
	Properties map[string]JSONSchema `json:"properties,omitempty"`
	Items      *JSONSchema           `json:"items,omitempty"`
	Required   []string              `json:"required,omitempty"`
}

// BuildSpec assembles the OpenAPI document for a set of generated routers.
func BuildSpec(title, version string, routers []*Router) OpenAPISpec {
	spec := OpenAPISpec{
		OpenAPI: "3.1.0",
		Info:    OpenAPIInfo{Title: title, Version: version},
		Paths:   make(map[string]PathItem),
	}
	for _, rt := range routers {
		rt.addPaths(spec.Paths)
	}
	return spec
}

func (rt *Router) addPaths(paths map[string]PathItem) {
	collection := "/" + rt.opts.prefix
	item := collection + "/{id}"
	name := rt.schema.Name
	tags := []string{rt.opts.prefix}

	bodySchema := rt.recordSchema()
	createBody := rt.recordSchema()
	createBody.Required = rt.requiredCreateFields()

	colOps := PathItem{}
	if !rt.opts.disabled[OpList] {
		colOps["get"] = OpenAPIOperation{
			Summary:     "List " + rt.opts.prefix,
			OperationID: "list_" + rt.opts.prefix,
			Tags:        tags,
			Parameters:  rt.listParameters(),
			Responses: map[string]OpenAPIResponse{
				statusKey(http.StatusOK): {
					Description: "Matching records",
					Content: map[string]OpenAPIContent{
						"application/json": {Schema: JSONSchema{Type: "array", Items: &bodySchema}},
					},
				},
				statusKey(http.StatusNotFound): errResponse("No records matched"),
			},
		}
	}
	if !rt.opts.disabled[OpCreate] {
		colOps["post"] = OpenAPIOperation{
			Summary:     "Create a " + name,
			OperationID: "create_" + name,
			Tags:        tags,
			RequestBody: &OpenAPIRequestBody{
				Required: true,
				Content:  map[string]OpenAPIContent{"application/json": {Schema: createBody}},
			},
			Responses: map[string]OpenAPIResponse{
				statusKey(http.StatusCreated): jsonResponse("Created record", bodySchema),
				statusKey(http.StatusConflict): errResponse("Uniqueness constraint violated"),
				statusKey(http.StatusUnprocessableEntity): errResponse("Storage constraint violated"),
			},
		}
	}
	if !rt.opts.disabled[OpDeleteAll] {
		colOps["delete"] = OpenAPIOperation{
			Summary:     "Delete all " + rt.opts.prefix,
			OperationID: "delete_all_" + rt.opts.prefix,
			Tags:        tags,
			Responses: map[string]OpenAPIResponse{
				statusKey(http.StatusNoContent): {Description: "Collection emptied"},
			},
		}
	}
	if len(colOps) > 0 {
		paths[collection] = colOps
	}

	idParam := OpenAPIParameter{
		Name:     "id",
		In:       "path",
		Required: true,
		Schema:   fieldSchema(rt.pk.Type),
	}
	itemOps := PathItem{}
	if !rt.opts.disabled[OpGet] {
		itemOps["get"] = OpenAPIOperation{
			Summary:     "Get a " + name,
			OperationID: "get_" + name,
			Tags:        tags,
			Parameters:  []OpenAPIParameter{idParam},
			Responses: map[string]OpenAPIResponse{
				statusKey(http.StatusOK):       jsonResponse("The record", bodySchema),
				statusKey(http.StatusNotFound): errResponse("No record with that id"),
			},
		}
	}
	if !rt.opts.disabled[OpUpdate] {
		itemOps["put"] = OpenAPIOperation{
			Summary:     "Update a " + name,
			OperationID: "update_" + name,
			Tags:        tags,
			Parameters:  []OpenAPIParameter{idParam},
			RequestBody: &OpenAPIRequestBody{
				Required: true,
				Content:  map[string]OpenAPIContent{"application/json": {Schema: bodySchema}},
			},
			Responses: map[string]OpenAPIResponse{
				statusKey(http.StatusOK):       jsonResponse("Updated record", bodySchema),
				statusKey(http.StatusNotFound): errResponse("No record with that id"),
			},
		}
	}
	if !rt.opts.disabled[OpDeleteOne] {
		itemOps["delete"] = OpenAPIOperation{
			Summary:     "Delete a " + name,
			OperationID: "delete_" + name,
			Tags:        tags,
			Parameters:  []OpenAPIParameter{idParam},
			Responses: map[string]OpenAPIResponse{
				statusKey(http.StatusNoContent): {Description: "Record removed"},
				statusKey(http.StatusNotFound):  errResponse("No record with that id"),
			},
		}
	}
	if len(itemOps) > 0 {
		paths[item] = itemOps
	}
}

// listParameters returns skip, limit, and one equality filter per field.
func (rt *Router) listParameters() []OpenAPIParameter {
	params := []OpenAPIParameter{
		{Name: "skip", In: "query", Schema: JSONSchema{Type: "integer"}},
		{Name: "limit", In: "query", Schema: JSONSchema{Type: "integer"}},
	}
	for _, f := range rt.schema.Fields {
		params = append(params, OpenAPIParameter{
			Name:   f.Name,
			In:     "query",
			Schema: fieldSchema(f.Type),
		})
	}
	return params
}

func (rt *Router) recordSchema() JSONSchema {
	props := make(map[string]JSONSchema, len(rt.schema.Fields))
	for _, f := range rt.schema.Fields {
		props[f.Name] = fieldSchema(f.Type)
	}
	return JSONSchema{Type: "object", Properties: props}
}

func (rt *Router) requiredCreateFields() []string {
	var required []string
	for _, f := range rt.schema.Fields {
		if f.Required && f.Name != rt.schema.PrimaryKey {
			required = append(required, f.Name)
		}
	}
	return required
}

func fieldSchema(t resource.Type) JSONSchema {
	switch t {
	case resource.TypeInt:
		return JSONSchema{Type: "integer"}
	case resource.TypeFloat:
		return JSONSchema{Type: "number"}
	case resource.TypeBool:
		return JSONSchema{Type: "boolean"}
	default:
		return JSONSchema{Type: "string"}
	}
}

func jsonResponse(desc string, schema JSONSchema) OpenAPIResponse {
	return OpenAPIResponse{
		Description: desc,
		Content:     map[string]OpenAPIContent{"application/json": {Schema: schema}},
	}
}

func errResponse(desc string) OpenAPIResponse {
	return OpenAPIResponse{Description: desc}
}

func statusKey(code int) string {
	return strconv.Itoa(code)
}
