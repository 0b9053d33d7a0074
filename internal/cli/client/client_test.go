package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"token expired"}`))
		case "/materiais/serie/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("no such material"))
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"admins only"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())

	_, err := c.Me(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "token expired", apiErr.Message)
	assert.Equal(t, "request failed (status 401): token expired", err.Error())

	_, err = c.GetMaterialBySerial(t.Context(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "no such material")

	err = c.DeleteMaterial(t.Context(), "1")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestAuthAPI_Login(t *testing.T) {
	t.Run("splits tokens from identity", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/login", r.URL.Path)
			var body LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ana@museu.ao", body.Email)
			assert.Equal(t, "secret", body.Password)
			_, _ = w.Write([]byte(`{"token":"a1","refreshToken":"r1","id":7,"nome":"Ana","role":"administrador"}`))
		}))
		defer srv.Close()

		result, err := NewAuthAPI(srv.URL, nil).Login(t.Context(), "ana@museu.ao", "secret")
		require.NoError(t, err)
		assert.Equal(t, "a1", result.AccessToken)
		assert.Equal(t, "r1", result.RefreshToken)
		assert.JSONEq(t, `{"id":7,"nome":"Ana","role":"administrador"}`, string(result.User))
	})

	t.Run("nested user", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token":"a1","refreshToken":"r1","user":{"id":"01J","role":"user"}}`))
		}))
		defer srv.Close()

		result, err := NewAuthAPI(srv.URL, nil).Login(t.Context(), "a", "b")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"01J","role":"user"}`, string(result.User))
	})

	t.Run("invalid credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"credenciais inválidas"}`))
		}))
		defer srv.Close()

		_, err := NewAuthAPI(srv.URL, nil).Login(t.Context(), "a", "b")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
		assert.True(t, errors.Is(err, ErrUnauthorized))
	})

	t.Run("missing token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":1}`))
		}))
		defer srv.Close()

		_, err := NewAuthAPI(srv.URL, nil).Login(t.Context(), "a", "b")
		assert.ErrorContains(t, err, "no token")
	})
}

func TestAuthAPI_Refresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "r1", body["refreshToken"])
		_, _ = w.Write([]byte(`{"token":"a2"}`))
	}))
	defer srv.Close()

	pair, err := NewAuthAPI(srv.URL+"/", nil).Refresh(t.Context(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", pair.AccessToken)
	assert.Empty(t, pair.RefreshToken)
}

func TestListMaterials(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`[
			{"id": 1, "nome": "Telégrafo", "numero_serie": "T-1"},
			{"id": "01HZX", "nome_material": "Rádio", "fabricante": null}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())

	materials, err := c.ListMaterials(t.Context(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "limit=12&page=1", query)
	require.Len(t, materials, 2)
	assert.Equal(t, ID("1"), materials[0].ID)
	assert.Equal(t, "Telégrafo", materials[0].Name)
	assert.Equal(t, ID("01HZX"), materials[1].ID)
	assert.Equal(t, "Rádio", materials[1].Name)
	assert.Empty(t, materials[1].Manufacturer)

	_, err = c.ListMaterials(t.Context(), ListOptions{Page: 3, Limit: 5, Search: "rádio antigo"})
	require.NoError(t, err)
	assert.Equal(t, "limit=5&page=3&q=r%C3%A1dio+antigo", query)
}

func TestListMaterials_ServerIgnoresPaging(t *testing.T) {
	var catalog []map[string]any
	for i := 1; i <= 30; i++ {
		m := map[string]any{"id": i, "nome": fmt.Sprintf("Peça %d", i)}
		if i%10 == 0 {
			m["fabricante"] = "Philips"
		}
		catalog = append(catalog, m)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(catalog)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())

	page, err := c.ListMaterials(t.Context(), ListOptions{Page: 2})
	require.NoError(t, err)
	require.Len(t, page, 12)
	assert.Equal(t, ID("13"), page[0].ID)

	page, err = c.ListMaterials(t.Context(), ListOptions{Page: 3})
	require.NoError(t, err)
	require.Len(t, page, 6)
	assert.Equal(t, ID("30"), page[5].ID)

	page, err = c.ListMaterials(t.Context(), ListOptions{Page: 4})
	require.NoError(t, err)
	assert.Empty(t, page)

	found, err := c.ListMaterials(t.Context(), ListOptions{Search: "philips"})
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, ID("10"), found[0].ID)
}

func TestCreateMaterial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		fields := map[string]string{}
		files := map[string]string{}
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(part)
			if part.FileName() != "" {
				files[part.FormName()] = part.FileName() + ":" + string(data)
			} else {
				fields[part.FormName()] = string(data)
			}
		}

		assert.Equal(t, map[string]string{
			"nome":         "Telefone de manivela",
			"ano_fabrico":  "1920",
			"numero_serie": "TM-20",
		}, fields)
		assert.Equal(t, map[string]string{
			"imagem": "foto.png:png-bytes",
			"pdf":    "ficha.pdf:pdf-bytes",
		}, files)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":9,"nome":"Telefone de manivela"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	material, err := c.CreateMaterial(t.Context(),
		MaterialInput{Name: "Telefone de manivela", ManufactureYear: "1920", SerialNumber: "TM-20"},
		Attachment{Field: FieldImage, Filename: "/tmp/foto.png", ContentType: "image/png", Content: []byte("png-bytes")},
		Attachment{Field: FieldPDF, Filename: "ficha.pdf", Content: []byte("pdf-bytes")},
	)
	require.NoError(t, err)
	assert.Equal(t, ID("9"), material.ID)

	_, err = c.CreateMaterial(t.Context(), MaterialInput{Name: " "})
	assert.ErrorContains(t, err, "name is required")

	_, err = c.CreateMaterial(t.Context(), MaterialInput{Name: "x"}, Attachment{Field: "video"})
	assert.ErrorContains(t, err, "unknown attachment field")
}

func TestUpdateMaterial_SendsOnlySetFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/materiais/42", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"modelo":"M2","foto":"data:image/png;base64,cG5n"}`, string(body))
		_, _ = w.Write([]byte(`{"id":42,"nome":"x","modelo":"M2"}`))
	}))
	defer srv.Close()

	model := "M2"
	photo := DataURL("image/png", []byte("png"))
	material, err := New(srv.URL, srv.Client()).UpdateMaterial(t.Context(), "42", MaterialUpdate{Model: &model, Photo: &photo})
	require.NoError(t, err)
	assert.Equal(t, "M2", material.Model)

	_, err = New(srv.URL, srv.Client()).UpdateMaterial(t.Context(), "42", MaterialUpdate{})
	assert.ErrorContains(t, err, "nothing to update")
}

func TestUsersAndDashboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/usuarios" && r.Method == http.MethodPost:
			var body SignupRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "pw", body.Password)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":3,"nome":"` + body.Name + `","email":"` + body.Email + `"}`))
		case r.URL.Path == "/usuarios":
			_, _ = w.Write([]byte(`[{"id":1,"nome":"Ana","email":"ana@museu.ao","role":"administrador"}]`))
		case r.URL.Path == "/dashboard":
			_, _ = w.Write([]byte(`{"total_estagiarios":4,"total_materiais":12}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())

	users, err := c.ListUsers(t.Context())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "administrador", users[0].Role)

	user, err := c.CreateUser(t.Context(), SignupRequest{Name: "Rui", Email: "rui@museu.ao", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, ID("3"), user.ID)

	dash, err := c.Dashboard(t.Context())
	require.NoError(t, err)
	assert.Equal(t, Dashboard{TotalUsers: 4, TotalMaterials: 12}, *dash)
}

func TestDecodeUser(t *testing.T) {
	user, err := DecodeUser([]byte(`{"id":5,"nome":"Ana","email":"a@b","role":"user"}`))
	require.NoError(t, err)
	assert.Equal(t, ID("5"), user.ID)

	_, err = DecodeUser([]byte(`{"id":[1]}`))
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to decode user"))
}
