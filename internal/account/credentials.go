package account

// Credentials holds the secrets the creation host needs to provision
// accounts. How they are obtained is up to the caller.
type Credentials struct {
	// EncryptionKey is the path to the RSA private key used to recover
	// encrypted passwords.
	EncryptionKey string `yaml:"encryptionKey"`
	// MysqlURI is the DSN of the pending request database.
	MysqlURI string `yaml:"mysqlUri"`
	// KerberosKeytab and KerberosPrincipal identify the service to the
	// Kerberos admin server.
	KerberosKeytab    string `yaml:"kerberosKeytab"`
	KerberosPrincipal string `yaml:"kerberosPrincipal"`
}
