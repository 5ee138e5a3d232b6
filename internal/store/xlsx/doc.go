// Package xlsx stores sheets as spreadsheet files, one "<name>.xlsx" file
// per sheet inside a folder.
//
// A transaction loads the first worksheet into memory. Commit writes the
// cells back into the workbook and replaces the file atomically, so other
// worksheets and styling in the workbook survive.
package xlsx
