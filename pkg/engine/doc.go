// Package engine wires the template registry, contract manager, document
// generator and export pipeline behind the operations the dashboard calls:
// upload templates, create and update contracts, generate documents and
// export them.
package engine
