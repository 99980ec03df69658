package cassandra

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/gocql/gocql"

	"github.com/grafana/cqlcursor/pkg/cqlerr"
)

// toProtocolError translates a gocql failure into the structured error the
// session classifies.
func toProtocolError(err error) error {
	if err == nil {
		return nil
	}
	var perr *cqlerr.ProtocolError
	if errors.As(err, &perr) {
		return err
	}
	return &cqlerr.ProtocolError{Condition: condition(err), Message: err.Error()}
}

func condition(err error) cqlerr.Condition {
	var (
		unavailable  *gocql.RequestErrUnavailable
		readTimeout  *gocql.RequestErrReadTimeout
		writeTimeout *gocql.RequestErrWriteTimeout
		reqErr       gocql.RequestError
		netErr       net.Error
	)

	msg := err.Error()
	switch {
	case errors.Is(err, gocql.ErrNotFound), strings.Contains(msg, "does not exist"):
		return cqlerr.CondNotFound
	case errors.As(err, &unavailable):
		return cqlerr.CondUnavailable
	case errors.As(err, &readTimeout), errors.As(err, &writeTimeout),
		errors.Is(err, gocql.ErrTimeoutNoResponse), errors.Is(err, context.DeadlineExceeded):
		return cqlerr.CondTimedOut
	case errors.As(err, &reqErr):
		return requestCondition(reqErr.Code())
	case strings.Contains(msg, "schema versions not consistent"):
		return cqlerr.CondSchemaDisagreement
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "authenticator"):
		return cqlerr.CondAuthentication
	case errors.Is(err, gocql.ErrNoKeyspace), errors.Is(err, gocql.ErrUseStmt):
		return cqlerr.CondInvalidRequest
	case errors.Is(err, gocql.ErrNoConnections), errors.Is(err, gocql.ErrConnectionClosed),
		errors.Is(err, gocql.ErrSessionClosed), errors.Is(err, gocql.ErrNoHosts),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return cqlerr.CondTransport
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return cqlerr.CondTimedOut
		}
		return cqlerr.CondTransport
	default:
		return cqlerr.CondUnknown
	}
}

// requestCondition maps a native protocol error code.
func requestCondition(code int) cqlerr.Condition {
	switch code {
	case gocql.ErrCodeSyntax, gocql.ErrCodeInvalid, gocql.ErrCodeConfig,
		gocql.ErrCodeAlreadyExists, gocql.ErrCodeUnprepared:
		return cqlerr.CondInvalidRequest
	case gocql.ErrCodeCredentials:
		return cqlerr.CondAuthentication
	case gocql.ErrCodeUnauthorized:
		return cqlerr.CondAuthorization
	case gocql.ErrCodeUnavailable:
		return cqlerr.CondUnavailable
	case gocql.ErrCodeReadTimeout, gocql.ErrCodeWriteTimeout:
		return cqlerr.CondTimedOut
	default:
		return cqlerr.CondProtocol
	}
}
