package config

import "net/url"

const redactedValue = "****"

// Redacted returns a copy of c with credentials masked, for display.
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = redactedValue
		}
	}
	mask(&c.Server.APIToken)
	mask(&c.VideoIndexer.ClientSecret)
	mask(&c.VideoIndexer.AccessToken)
	mask(&c.Search.Azure.APIKey)
	mask(&c.Search.Milvus.Password)
	mask(&c.Search.Milvus.APIKey)
	mask(&c.Embedding.APIKey)
	mask(&c.LLM.APIKey)
	c.Search.PGVector.DSN = redactDSN(c.Search.PGVector.DSN)
	return c
}

// redactDSN masks the password of a URL-style DSN. Keyword/value DSNs are
// masked whole since the password can sit anywhere in them.
func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return redactedValue
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), redactedValue)
	}
	return u.String()
}
