// Package testdb provides utilities specifically for database testing:
// opening the test database from DATABASE_URL, applying the embedded
// migrations and running test bodies inside rolled-back transactions.
package testdb
