// Package msm is a filesystem-backed mock server for net/http.
//
// A Server answers requests under its API prefixes with definitions found,
// in order, in the runtime override store and then in definition files
// under {root}/{apiDir}/{method}/. Requests with nothing to serve get a 404
// with an empty JSON object.
//
//	srv, err := msm.New(config.Config{Ping: config.Ms(50)})
//	if err != nil {
//		return err
//	}
//	http.ListenAndServe(":8080", srv.Middleware(appHandler))
//
// Tests steer a Server at runtime:
//
//	srv.Once("GET", "/api/user/1", `{"code": 500, "body": {}}`)
//	srv.Record(false)
//	defer srv.Flush()
//	...
//	calls := srv.Called(calllog.Filter{Pathname: calllog.Prefix("/api/user")})
//
// Each Server owns its overrides and call log, so several can run in one
// process.
package msm
